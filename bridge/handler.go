// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

// Handler is the direction-specific HTLC handler (C5), instantiated
// once per wrapped asset (e.g. WBTC, WETH). It glues the quota ledger
// (C3) and HTLC engine (C4), escrows the native-coin outbound fee, and
// emits the protocol's lifecycle events.
type Handler struct {
	mu sync.RWMutex

	selfIdentity common.Address // this handler's own identity; the escrow account key
	asset        common.Address // the wrapped asset this handler manages

	quota *QuotaLedger
	htlc  *HTLCEngine
	token *WrappedToken
	admin GroupAdminRegistry

	access *AccessControl
	events *EventBus
	clock  Clock
	log    log.Logger

	feeEscrow map[common.Hash]*uint256.Int
}

// NewHandler constructs a handler with no quota ledger and no admin
// registry; both are bound later via SetWtokenManager/SetStoremanGroupAdmin, and every
// inbound/outbound operation fails with ErrNotInitialized until both
// are set.
func NewHandler(
	selfIdentity, asset common.Address,
	access *AccessControl, htlc *HTLCEngine, token *WrappedToken,
	clock Clock, events *EventBus, logger log.Logger,
) *Handler {
	return &Handler{
		selfIdentity: selfIdentity,
		asset:        asset,
		htlc:         htlc,
		token:        token,
		access:       access,
		events:       events,
		clock:        clock,
		log:          logger,
		feeEscrow:    make(map[common.Hash]*uint256.Int),
	}
}

// SetWtokenManager binds the quota ledger that manages the wrapped
// token. Owner, halted only.
func (h *Handler) SetWtokenManager(caller common.Address, quota *QuotaLedger) error {
	if err := h.access.RequireHalted(caller); err != nil {
		return err
	}
	if quota == nil {
		return ErrInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.quota = quota
	if h.events != nil {
		h.events.Emit(TopicManagerSet, h.selfIdentity, h.clock.Now(), h.selfIdentity)
	}
	return nil
}

// SetStoremanGroupAdmin binds the group-admin registry supplying fee
// ratios and coin metadata. Owner, halted only. The registry's
// CoinDecimals for this handler's asset must agree with the wrapped
// token's own decimals, catching an admin registry wired to the wrong
// asset before it can skew fee math.
func (h *Handler) SetStoremanGroupAdmin(caller common.Address, admin GroupAdminRegistry) error {
	if err := h.access.RequireHalted(caller); err != nil {
		return err
	}
	if admin == nil {
		return ErrInvalidArgument
	}
	decimals, err := admin.CoinDecimals(h.asset)
	if err != nil {
		return err
	}
	if h.token != nil && decimals != h.token.Decimals() {
		return ErrInvalidArgument
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.admin = admin
	return nil
}

// SetLockedTime forwards to the HTLC engine's admin setter. Owner,
// halted only; the HTLC engine itself enforces the gate.
func (h *Handler) SetLockedTime(caller common.Address, seconds uint64) error {
	return h.htlc.SetLockedTime(caller, seconds)
}

// SetRevokeFeeRatio forwards to the HTLC engine's admin setter. Owner,
// halted only; the HTLC engine itself enforces the gate.
func (h *Handler) SetRevokeFeeRatio(caller common.Address, ratio uint64) error {
	return h.htlc.SetRevokeFeeRatio(caller, ratio)
}

func (h *Handler) initialized() (*QuotaLedger, GroupAdminRegistry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.quota == nil || h.admin == nil {
		return nil, nil, ErrNotInitialized
	}
	return h.quota, h.admin, nil
}

// InboundLock opens the base->wrapped HTLC: the calling storeman
// reserves quota ahead of minting to wanAddr once the preimage surfaces.
func (h *Handler) InboundLock(caller common.Address, xHash common.Hash, wanAddr common.Address, value *uint256.Int) error {
	if err := h.access.RequireNotHalted(); err != nil {
		return err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return err
	}
	if err := h.htlc.AddHTLCTx(DirectionCoin2Wtoken, caller, wanAddr, xHash, value, false, common.Address{}); err != nil {
		return err
	}
	if err := quota.LockQuota(h.selfIdentity, caller, wanAddr, value); err != nil {
		return err
	}
	if h.events != nil {
		h.events.Emit(TopicInboundLock, caller, h.clock.Now(), caller, wanAddr, xHash, new(uint256.Int).Set(value))
	}
	if h.log != nil {
		h.log.Debug("inbound lock", "storeman", caller, "wanAddr", wanAddr, "xHash", xHash, "value", value.String())
	}
	return nil
}

// InboundRefund completes an inbound HTLC on preimage reveal, minting
// (or draining debt for) the recorded destination.
func (h *Handler) InboundRefund(caller common.Address, x common.Hash) error {
	if err := h.access.RequireNotHalted(); err != nil {
		return err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return err
	}
	xHash := common.BytesToHash(crypto.Keccak256(x.Bytes()))
	rec, err := h.htlc.RefundHTLCTx(caller, xHash, DirectionCoin2Wtoken)
	if err != nil {
		return err
	}
	if err := quota.MintToken(h.selfIdentity, rec.Source, rec.Destination, rec.Value); err != nil {
		return err
	}
	if h.events != nil {
		h.events.Emit(TopicInboundRefund, rec.Destination, h.clock.Now(), rec.Destination, rec.Source, xHash, x)
	}
	return nil
}

// InboundRevoke releases the quota reservation after an inbound HTLC's
// window has expired.
func (h *Handler) InboundRevoke(caller common.Address, xHash common.Hash) error {
	if err := h.access.RequireNotHalted(); err != nil {
		return err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return err
	}
	rec, err := h.htlc.RevokeHTLCTx(caller, xHash, DirectionCoin2Wtoken, false)
	if err != nil {
		return err
	}
	if err := quota.UnlockQuota(h.selfIdentity, rec.Source, rec.Value); err != nil {
		return err
	}
	if h.events != nil {
		h.events.Emit(TopicInboundRevoke, rec.Source, h.clock.Now(), rec.Source, xHash)
	}
	return nil
}

// GetOutboundFee computes the native-coin fee owed for an outbound
// swap of value through group, per the configured admin registry.
func (h *Handler) GetOutboundFee(group common.Address, value *uint256.Int) (*uint256.Int, error) {
	_, admin, err := h.initialized()
	if err != nil {
		return nil, err
	}
	coin2Wan, err := admin.Coin2WanRatio(h.asset)
	if err != nil {
		return nil, err
	}
	txFee, err := admin.TxFeeRatio(h.asset, group)
	if err != nil {
		return nil, err
	}
	precise := admin.Precise()
	if precise.IsZero() {
		return nil, ErrInvalidArgument
	}

	step, err := checkedMul(value, coin2Wan)
	if err != nil {
		return nil, err
	}
	step, err = checkedMul(step, txFee)
	if err != nil {
		return nil, err
	}
	preciseSq, err := checkedMul(precise, precise)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(step, preciseSq), nil
}

// OutboundLock opens the wrapped->base HTLC: it escrows the user's
// wrapped tokens and the native-coin fee ahead of the storeman's
// base-chain release. attachedFee is the native coin the caller sent;
// any excess over the computed fee is returned to change.
func (h *Handler) OutboundLock(caller common.Address, xHash common.Hash, group, baseAddr common.Address, value, attachedFee *uint256.Int) (changeDue *uint256.Int, err error) {
	if err := h.access.RequireNotHalted(); err != nil {
		return nil, err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return nil, err
	}
	fee, err := h.GetOutboundFee(group, value)
	if err != nil {
		return nil, err
	}
	if attachedFee == nil || attachedFee.Lt(fee) {
		return nil, ErrInsufficientFee
	}
	if err := h.htlc.AddHTLCTx(DirectionWtoken2Coin, caller, group, xHash, value, true, baseAddr); err != nil {
		return nil, err
	}
	if err := quota.LockToken(h.selfIdentity, group, caller, value); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.feeEscrow[xHash] = new(uint256.Int).Set(fee)
	h.mu.Unlock()

	change, err := checkedSub(attachedFee, fee)
	if err != nil {
		return nil, err
	}
	if h.events != nil {
		h.events.Emit(TopicOutboundLock, caller, h.clock.Now(), caller, group, xHash, new(uint256.Int).Set(value), baseAddr, new(uint256.Int).Set(fee))
	}
	return change, nil
}

// OutboundRefund completes an outbound HTLC on preimage reveal: the
// escrowed tokens are burned and the escrowed fee forwarded to the storeman.
func (h *Handler) OutboundRefund(caller common.Address, x common.Hash) (feePaid *uint256.Int, err error) {
	if err := h.access.RequireNotHalted(); err != nil {
		return nil, err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return nil, err
	}
	xHash := common.BytesToHash(crypto.Keccak256(x.Bytes()))
	rec, err := h.htlc.RefundHTLCTx(caller, xHash, DirectionWtoken2Coin)
	if err != nil {
		return nil, err
	}
	if err := quota.BurnToken(h.selfIdentity, rec.Destination, rec.Value); err != nil {
		return nil, err
	}
	fee := h.takeFeeEscrow(xHash)
	if h.events != nil {
		h.events.Emit(TopicOutboundRefund, rec.Destination, h.clock.Now(), rec.Destination, rec.Source, xHash, x)
	}
	return fee, nil
}

// OutboundRevoke reverses an outbound HTLC after expiry: escrowed
// tokens return to the user and the escrowed fee splits between the
// storeman (revokeFeeRatio share) and the user (remainder).
func (h *Handler) OutboundRevoke(caller common.Address, xHash common.Hash) (storemanFee, userRefund *uint256.Int, err error) {
	if err := h.access.RequireNotHalted(); err != nil {
		return nil, nil, err
	}
	quota, _, err := h.initialized()
	if err != nil {
		return nil, nil, err
	}
	rec, err := h.htlc.RevokeHTLCTx(caller, xHash, DirectionWtoken2Coin, true)
	if err != nil {
		return nil, nil, err
	}
	if err := quota.UnlockToken(h.selfIdentity, rec.Destination, rec.Source, rec.Value); err != nil {
		return nil, nil, err
	}
	fee := h.takeFeeEscrow(xHash)
	ratio := h.htlc.RevokeFeeRatio()
	split, err := checkedMul(fee, uint256.NewInt(ratio))
	if err != nil {
		return nil, nil, err
	}
	storemanFee = new(uint256.Int).Div(split, uint256.NewInt(RatioPrecise))
	userRefund, err = checkedSub(fee, storemanFee)
	if err != nil {
		return nil, nil, err
	}
	if h.events != nil {
		h.events.Emit(TopicOutboundRevoke, rec.Source, h.clock.Now(), rec.Source, xHash)
	}
	return storemanFee, userRefund, nil
}

func (h *Handler) takeFeeEscrow(xHash common.Hash) *uint256.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	fee, ok := h.feeEscrow[xHash]
	if !ok {
		return uint256.NewInt(0)
	}
	delete(h.feeEscrow, xHash)
	return fee
}

func (h *Handler) GetHTLCLeftLockedTime(xHash common.Hash) *uint256.Int {
	return h.htlc.GetHTLCLeftLockedTime(xHash)
}

func (h *Handler) XHashExist(xHash common.Hash) bool {
	return h.htlc.XHashExist(xHash)
}
