// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// WrappedToken is the shadow-chain representation of the bridged base
// asset. Its ERC-20-compatible read/transfer surface is open to any
// caller; mint, burn, and lockTo are privileged operations callable
// only by the configured manager: the quota ledger (C3).
type WrappedToken struct {
	name     string
	symbol   string
	decimals uint8

	mu          sync.RWMutex
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	totalSupply *uint256.Int

	manager common.Address
	events  *EventBus
	access  *AccessControl
}

// NewWrappedToken constructs the token with manager already bound,
// following the fixed-order wiring for the token/manager cyclic
// reference: the token is created first with the manager's identity
// (a plain address) and is then handed to the manager's constructor,
// so the token never owns a reference back.
// access is the settlement core's shared halt gate (C1).
func NewWrappedToken(name, symbol string, decimals uint8, manager common.Address, access *AccessControl, events *EventBus) *WrappedToken {
	return &WrappedToken{
		name:        name,
		symbol:      symbol,
		decimals:    decimals,
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		totalSupply: uint256.NewInt(0),
		manager:     manager,
		access:      access,
		events:      events,
	}
}

func (t *WrappedToken) Name() string     { return t.name }
func (t *WrappedToken) Symbol() string   { return t.symbol }
func (t *WrappedToken) Decimals() uint8  { return t.decimals }
func (t *WrappedToken) Manager() common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.manager
}

func (t *WrappedToken) BalanceOf(account common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.balanceLocked(account))
}

func (t *WrappedToken) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.totalSupply)
}

func (t *WrappedToken) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.allowances[owner]; ok {
		if v, ok := m[spender]; ok {
			return new(uint256.Int).Set(v)
		}
	}
	return uint256.NewInt(0)
}

// balanceLocked must be called with mu held.
func (t *WrappedToken) balanceLocked(account common.Address) *uint256.Int {
	if v, ok := t.balances[account]; ok {
		return v
	}
	return uint256.NewInt(0)
}

func (t *WrappedToken) Approve(owner, spender common.Address, value *uint256.Int) error {
	if value == nil {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(value)
	return nil
}

func (t *WrappedToken) Transfer(from, to common.Address, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(from, to, value)
}

func (t *WrappedToken) TransferFrom(spender, from, to common.Address, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := uint256.NewInt(0)
	if m, ok := t.allowances[from]; ok {
		if v, ok := m[spender]; ok {
			allowed = v
		}
	}
	remaining, err := checkedSub(allowed, value)
	if err != nil {
		return ErrQuotaExceeded
	}
	if err := t.moveLocked(from, to, value); err != nil {
		return err
	}
	t.allowances[from][spender] = remaining
	return nil
}

// moveLocked must be called with mu held; it does not touch totalSupply.
func (t *WrappedToken) moveLocked(from, to common.Address, value *uint256.Int) error {
	fromBal := t.balanceLocked(from)
	newFrom, err := checkedSub(fromBal, value)
	if err != nil {
		return ErrQuotaExceeded
	}
	toBal := t.balanceLocked(to)
	newTo, err := checkedAdd(toBal, value)
	if err != nil {
		return ErrInvariantBroken
	}
	t.balances[from] = newFrom
	t.balances[to] = newTo
	return nil
}

// Mint credits to and increases totalSupply. Manager only.
func (t *WrappedToken) Mint(caller, to common.Address, value *uint256.Int) error {
	if err := t.access.RequireNotHalted(); err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	if to == (common.Address{}) {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.manager {
		return ErrUnauthorized
	}
	newBal, err := checkedAdd(t.balanceLocked(to), value)
	if err != nil {
		return err
	}
	newSupply, err := checkedAdd(t.totalSupply, value)
	if err != nil {
		return err
	}
	t.balances[to] = newBal
	t.totalSupply = newSupply
	if t.events != nil {
		t.events.Emit(TopicTokenMinted, to, 0, to, new(uint256.Int).Set(value), new(uint256.Int).Set(newSupply))
	}
	return nil
}

// Burn debits from and decreases totalSupply. Manager only.
func (t *WrappedToken) Burn(caller, from common.Address, value *uint256.Int) error {
	if err := t.access.RequireNotHalted(); err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.manager {
		return ErrUnauthorized
	}
	newBal, err := checkedSub(t.balanceLocked(from), value)
	if err != nil {
		return ErrQuotaExceeded
	}
	newSupply, err := checkedSub(t.totalSupply, value)
	if err != nil {
		return err
	}
	t.balances[from] = newBal
	t.totalSupply = newSupply
	if t.events != nil {
		t.events.Emit(TopicTokenBurnt, from, 0, from, new(uint256.Int).Set(value), new(uint256.Int).Set(newSupply))
	}
	return nil
}

// LockTo moves balance between two identities without touching
// totalSupply. Manager only.
func (t *WrappedToken) LockTo(caller, from, to common.Address, value *uint256.Int) error {
	if err := t.access.RequireNotHalted(); err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	if from == to {
		return ErrSelfTransfer
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if caller != t.manager {
		return ErrUnauthorized
	}
	if err := t.moveLocked(from, to, value); err != nil {
		return err
	}
	if t.events != nil {
		t.events.Emit(TopicTokenLocked, from, 0, from, to, new(uint256.Int).Set(value))
	}
	return nil
}
