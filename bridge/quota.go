// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// QuotaLedger is the per-asset-pair bookkeeping core (C3). It tracks
// each storeman group's quota/receivable/debt/payable and is the only
// caller authorized to mint, burn, or lockTo on the wrapped token.
//
// selfIdentity is the address the token was constructed with as its
// manager; escrowAddress is the HTLC handler's identity, used as the
// intra-token account that holds locked-but-not-burned value.
type QuotaLedger struct {
	mu sync.RWMutex

	groups     map[common.Address]*Group
	totalQuota *uint256.Int

	selfIdentity  common.Address
	groupAdmin    common.Address
	handler       common.Address
	escrowAddress common.Address
	owner         common.Address

	token  *WrappedToken
	events *EventBus
	clock  Clock
	access *AccessControl
}

// NewQuotaLedger wires the ledger to its token, its authorized caller
// (the HTLC handler), and the escrow identity value movements settle
// through. token must already have been constructed with manager ==
// selfIdentity. access is the settlement core's shared halt gate (C1).
func NewQuotaLedger(
	selfIdentity, groupAdmin, handlerIdentity, escrowAddress common.Address,
	token *WrappedToken, access *AccessControl, events *EventBus, clock Clock, owner common.Address,
) *QuotaLedger {
	return &QuotaLedger{
		groups:        make(map[common.Address]*Group),
		totalQuota:    uint256.NewInt(0),
		selfIdentity:  selfIdentity,
		groupAdmin:    groupAdmin,
		handler:       handlerIdentity,
		escrowAddress: escrowAddress,
		owner:         owner,
		token:         token,
		events:        events,
		clock:         clock,
		access:        access,
	}
}

func (q *QuotaLedger) group(addr common.Address) *Group {
	if g, ok := q.groups[addr]; ok {
		return g
	}
	return zeroGroup()
}

// RegisterStoremanGroup installs a new group record. Group-admin only.
func (q *QuotaLedger) RegisterStoremanGroup(caller, group common.Address, quota *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.groupAdmin {
		return ErrUnauthorized
	}
	if quota == nil || quota.IsZero() || group == (common.Address{}) {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.group(group).registered() {
		return ErrAlreadyRegistered
	}
	newTotal, err := checkedAdd(q.totalQuota, quota)
	if err != nil {
		return err
	}
	q.groups[group] = &Group{
		Quota:      new(uint256.Int).Set(quota),
		Receivable: uint256.NewInt(0),
		Debt:       uint256.NewInt(0),
		Payable:    uint256.NewInt(0),
	}
	q.totalQuota = newTotal
	if q.events != nil {
		q.events.Emit(TopicGroupRegistered, group, 0, group, new(uint256.Int).Set(quota), new(uint256.Int).Set(newTotal))
	}
	return nil
}

// ApplyUnregistration marks an Active group UnregisterPending. Group-admin only.
func (q *QuotaLedger) ApplyUnregistration(caller, group common.Address) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.groupAdmin {
		return ErrUnauthorized
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.active() {
		return ErrNotActive
	}
	g.UnregisterPending = true
	return nil
}

// UnregisterStoremanGroup clears a fully drained UnregisterPending
// group. Group-admin only.
func (q *QuotaLedger) UnregisterStoremanGroup(caller, group common.Address) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.groupAdmin {
		return ErrUnauthorized
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.UnregisterPending {
		return ErrNotActive
	}
	if !g.Receivable.IsZero() || !g.Payable.IsZero() || !g.Debt.IsZero() {
		return ErrDebtOutstanding
	}
	newTotal, err := checkedSub(q.totalQuota, g.Quota)
	if err != nil {
		return err
	}
	q.totalQuota = newTotal
	quotaWas := new(uint256.Int).Set(g.Quota)
	delete(q.groups, group)
	if q.events != nil {
		q.events.Emit(TopicGroupUnregistered, group, 0, group, quotaWas, new(uint256.Int).Set(newTotal))
	}
	return nil
}

// LockQuota reserves an inbound mint against group's quota, directed at
// recipient. HTLC handler only.
func (q *QuotaLedger) LockQuota(caller, group, recipient common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.active() {
		return ErrNotActive
	}
	r := q.group(recipient)
	if r.active() {
		return ErrNotActive
	}
	if r.registered() {
		// recipient is UnregisterPending: only eligible as a debt-drain
		// target when it carries no in-flight amounts and has debt to pay down.
		if !r.Receivable.IsZero() || !r.Payable.IsZero() || r.Debt.IsZero() {
			return ErrNotActive
		}
	}
	if g.inboundAvailable().Lt(value) {
		return ErrQuotaExceeded
	}
	newReceivable, err := checkedAdd(g.Receivable, value)
	if err != nil {
		return err
	}
	g.Receivable = newReceivable
	return nil
}

// UnlockQuota releases a reservation on inbound revoke. HTLC handler only.
func (q *QuotaLedger) UnlockQuota(caller, group common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.registered() {
		return ErrNotRegistered
	}
	if g.Receivable.Lt(value) {
		return ErrQuotaExceeded
	}
	newReceivable, err := checkedSub(g.Receivable, value)
	if err != nil {
		return err
	}
	g.Receivable = newReceivable
	return nil
}

// MintToken consumes a receivable reservation and either mints to an
// ordinary recipient or pays down an UnregisterPending group's debt.
// HTLC handler only.
func (q *QuotaLedger) MintToken(caller, group, recipient common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.registered() {
		return ErrNotRegistered
	}
	r, recipientIsGroup := q.groups[recipient]
	// An Active registered group as recipient is an invariant violation,
	// rejected before any state mutation rather than partially applied.
	if recipientIsGroup && r.active() {
		return ErrInvariantBroken
	}

	newReceivable, err := checkedSub(g.Receivable, value)
	if err != nil {
		return ErrQuotaExceeded
	}
	newDebt, err := checkedAdd(g.Debt, value)
	if err != nil {
		return err
	}
	g.Receivable = newReceivable
	g.Debt = newDebt

	if !recipientIsGroup || !r.registered() {
		if err := q.token.Mint(q.selfIdentity, recipient, value); err != nil {
			return err
		}
		return nil
	}
	// recipient is UnregisterPending: debt drain, clamped at zero, no mint.
	if r.Debt.Lt(value) {
		r.Debt = uint256.NewInt(0)
	} else {
		r.Debt, err = checkedSub(r.Debt, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// LockToken escrows an initiator's wrapped tokens ahead of an outbound
// burn. HTLC handler only.
func (q *QuotaLedger) LockToken(caller, group, initiator common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.active() {
		return ErrNotActive
	}
	if q.group(initiator).registered() {
		return ErrInvalidArgument
	}
	if g.outboundAvailable().Lt(value) {
		return ErrQuotaExceeded
	}
	newPayable, err := checkedAdd(g.Payable, value)
	if err != nil {
		return err
	}
	if err := q.token.LockTo(q.selfIdentity, initiator, q.escrowAddress, value); err != nil {
		return err
	}
	g.Payable = newPayable
	return nil
}

// UnlockToken returns escrowed value to recipient on outbound revoke.
// HTLC handler only.
func (q *QuotaLedger) UnlockToken(caller, group, recipient common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.registered() {
		return ErrNotRegistered
	}
	if g.Payable.Lt(value) {
		return ErrQuotaExceeded
	}
	newPayable, err := checkedSub(g.Payable, value)
	if err != nil {
		return err
	}
	if err := q.token.LockTo(q.selfIdentity, q.escrowAddress, recipient, value); err != nil {
		return err
	}
	g.Payable = newPayable
	return nil
}

// BurnToken burns escrowed value on outbound refund. HTLC handler only.
func (q *QuotaLedger) BurnToken(caller, group common.Address, value *uint256.Int) error {
	if err := q.access.RequireNotHalted(); err != nil {
		return err
	}
	if caller != q.handler {
		return ErrUnauthorized
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	g, ok := q.groups[group]
	if !ok || !g.registered() {
		return ErrNotRegistered
	}
	newDebt, err := checkedSub(g.Debt, value)
	if err != nil {
		return ErrQuotaExceeded
	}
	newPayable, err := checkedSub(g.Payable, value)
	if err != nil {
		return ErrQuotaExceeded
	}
	if err := q.token.Burn(q.selfIdentity, q.escrowAddress, value); err != nil {
		return err
	}
	g.Debt = newDebt
	g.Payable = newPayable
	return nil
}

// GetStoremanGroup returns (quota, inboundAvailable, outboundAvailable,
// receivable, payable, debt). Unregistered groups return all zeros.
func (q *QuotaLedger) GetStoremanGroup(group common.Address) (quota, inboundAvail, outboundAvail, receivable, payable, debt *uint256.Int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	g := q.group(group)
	return new(uint256.Int).Set(g.Quota), g.inboundAvailable(), g.outboundAvailable(),
		new(uint256.Int).Set(g.Receivable), new(uint256.Int).Set(g.Payable), new(uint256.Int).Set(g.Debt)
}

// GetTotalQuota returns the sum of all registered groups' quota. Owner only.
func (q *QuotaLedger) GetTotalQuota(caller common.Address) (*uint256.Int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if caller != q.owner {
		return nil, ErrUnauthorized
	}
	return new(uint256.Int).Set(q.totalQuota), nil
}

func (q *QuotaLedger) IsStoremanGroup(group common.Address) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.group(group).registered()
}

func (q *QuotaLedger) IsActiveStoremanGroup(group common.Address) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.group(group).active()
}
