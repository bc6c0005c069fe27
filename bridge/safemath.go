// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// checkedAdd rejects overflow instead of wrapping.
func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrInvariantBroken
	}
	return sum, nil
}

// checkedSub rejects underflow instead of wrapping.
func checkedSub(a, b *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrInvariantBroken
	}
	return diff, nil
}

// checkedMul rejects overflow instead of wrapping.
func checkedMul(a, b *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrInvariantBroken
	}
	return product, nil
}

// AccessControl is the halt gate and owner identity shared by C2-C5.
// A halted instance rejects every state-mutating operation except the
// owner-only admin setters, which require the instance to be halted.
type AccessControl struct {
	mu     sync.RWMutex
	owner  common.Address
	halted bool
	active bool
}

// NewAccessControl returns a live, non-halted gate owned by owner.
func NewAccessControl(owner common.Address) *AccessControl {
	return &AccessControl{owner: owner, active: true}
}

func (a *AccessControl) Owner() common.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

func (a *AccessControl) Halted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.halted
}

func (a *AccessControl) Active() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// RequireNotHalted is the notHalted modifier: gates ordinary
// state-mutating operations.
func (a *AccessControl) RequireNotHalted() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.active {
		return ErrSystemHalted
	}
	if a.halted {
		return ErrSystemHalted
	}
	return nil
}

// RequireHalted is the isHalted modifier: gates owner-only admin
// setters, discouraging live reconfiguration.
func (a *AccessControl) RequireHalted(caller common.Address) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if caller != a.owner {
		return ErrUnauthorized
	}
	if !a.halted {
		return ErrSystemNotHalted
	}
	return nil
}

// SetHalted flips the halt flag; owner only.
func (a *AccessControl) SetHalted(caller common.Address, halted bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if caller != a.owner {
		return ErrUnauthorized
	}
	a.halted = halted
	return nil
}

// Kill is permitted only while halted. sink is invoked to sweep
// residual native coin to the owner; the instance is then deactivated
// and every subsequent RequireNotHalted call fails permanently.
func (a *AccessControl) Kill(caller common.Address, sink func(owner common.Address) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if caller != a.owner {
		return ErrUnauthorized
	}
	if !a.halted {
		return ErrSystemNotHalted
	}
	if sink != nil {
		if err := sink(a.owner); err != nil {
			return err
		}
	}
	a.active = false
	return nil
}
