// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge implements the custody and settlement core of a
// two-chain atomic-swap bridge: a quota ledger for storeman groups, an
// HTLC state machine keyed by preimage hash, and the wrapped-token
// mint/burn/lock surface those two gate.
package bridge

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Direction identifies which leg of the swap an HTLC record belongs to.
type Direction uint8

const (
	DirectionCoin2Wtoken Direction = iota // base asset -> wrapped token (inbound)
	DirectionWtoken2Coin                  // wrapped token -> base asset (outbound)
)

func (d Direction) String() string {
	if d == DirectionWtoken2Coin {
		return "Wtoken2Coin"
	}
	return "Coin2Wtoken"
}

// HTLCStatus is the lifecycle state of an HTLC record. All transitions
// out of Locked are terminal.
type HTLCStatus uint8

const (
	HTLCStatusNone HTLCStatus = iota
	HTLCStatusLocked
	HTLCStatusRefunded
	HTLCStatusRevoked
)

// HTLCRecord is keyed by the 32-byte preimage hash (xHash).
type HTLCRecord struct {
	Direction       Direction
	Source          common.Address
	Destination     common.Address
	Value           *uint256.Int
	Status          HTLCStatus
	BeginLockedTime uint64
	LockedTime      uint64
	FirstHand       bool
	ShadowAddress   common.Address // only meaningful when FirstHand
	FeeEscrow       *uint256.Int   // not set by HTLCEngine; the outbound fee escrow is held by Handler, keyed by xHash
}

// clone returns a defensive copy safe to hand to callers outside the
// engine's lock.
func (r *HTLCRecord) clone() *HTLCRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Value != nil {
		cp.Value = new(uint256.Int).Set(r.Value)
	}
	if r.FeeEscrow != nil {
		cp.FeeEscrow = new(uint256.Int).Set(r.FeeEscrow)
	}
	return &cp
}

// Group is the per-storeman-group quota ledger record. Presence is
// encoded by Quota != 0; UnregisterPending is tracked separately so a
// group mid-decommission is still addressable.
type Group struct {
	Quota             *uint256.Int
	Receivable        *uint256.Int
	Debt              *uint256.Int
	Payable           *uint256.Int
	UnregisterPending bool
}

func zeroGroup() *Group {
	return &Group{
		Quota:      uint256.NewInt(0),
		Receivable: uint256.NewInt(0),
		Debt:       uint256.NewInt(0),
		Payable:    uint256.NewInt(0),
	}
}

func (g *Group) clone() *Group {
	if g == nil {
		return zeroGroup()
	}
	return &Group{
		Quota:             new(uint256.Int).Set(g.Quota),
		Receivable:        new(uint256.Int).Set(g.Receivable),
		Debt:              new(uint256.Int).Set(g.Debt),
		Payable:           new(uint256.Int).Set(g.Payable),
		UnregisterPending: g.UnregisterPending,
	}
}

// registered reports whether g represents a live (possibly
// unregister-pending) storeman group.
func (g *Group) registered() bool {
	return g != nil && g.Quota.Sign() != 0
}

// active reports whether g is Active: registered and not pending removal.
func (g *Group) active() bool {
	return g.registered() && !g.UnregisterPending
}

func (g *Group) inboundAvailable() *uint256.Int {
	reserved := new(uint256.Int).Add(g.Receivable, g.Debt)
	avail, underflow := new(uint256.Int).SubOverflow(g.Quota, reserved)
	if underflow {
		return uint256.NewInt(0)
	}
	return avail
}

func (g *Group) outboundAvailable() *uint256.Int {
	avail, underflow := new(uint256.Int).SubOverflow(g.Debt, g.Payable)
	if underflow {
		return uint256.NewInt(0)
	}
	return avail
}

// Settlement core configuration defaults.
const (
	DefaultBaseWindow = uint64(36 * 3600) // 36 hours
	RatioPrecise      = uint64(10000)
)

// MaxTimeSentinel is returned by GetHTLCLeftLockedTime for an xHash
// that has never been used (status None): 2^64 - 1.
var MaxTimeSentinel = new(uint256.Int).Sub(
	new(uint256.Int).Lsh(uint256.NewInt(1), 64), uint256.NewInt(1),
)

// Settlement core errors, grouped by the abstract kinds of the error
// handling design.
var (
	// Authorization and argument shape.
	ErrUnauthorized    = errors.New("unauthorized caller")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrSelfTransfer    = errors.New("self transfer")

	// Group lifecycle.
	ErrNotRegistered     = errors.New("storeman group not registered")
	ErrAlreadyRegistered = errors.New("storeman group already registered")
	ErrNotActive         = errors.New("storeman group not active")
	ErrDebtOutstanding   = errors.New("unregistration attempted with outstanding receivable, payable, or debt")

	// Ledger capacity and arithmetic.
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrInvariantBroken = errors.New("arithmetic invariant broken")

	// HTLC state machine.
	ErrHTLCStateViolation  = errors.New("htlc state violation")
	ErrHTLCTimingViolation = errors.New("htlc timing violation")
	ErrHTLCNotFound        = errors.New("htlc record not found")

	// Fees.
	ErrInsufficientFee = errors.New("insufficient fee")

	// Halt gate.
	ErrSystemHalted    = errors.New("system halted")
	ErrSystemNotHalted = errors.New("system not halted")

	// Handler wiring.
	ErrNotInitialized = errors.New("handler not initialized")
)
