// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// HTLCEngine is the base HTLC state machine (C4): it records locked
// transactions keyed by preimage hash and enforces direction, timeout,
// and terminal-transition rules. It has no notion of asset pairs or
// quota; that glue lives in the per-asset-pair handler (C5).
type HTLCEngine struct {
	mu sync.RWMutex

	records map[common.Hash]*HTLCRecord

	baseWindow     uint64
	revokeFeeRatio uint64

	clock  Clock
	events *EventBus
	access *AccessControl
}

// NewHTLCEngine constructs the engine with the default base window and
// a zero revoke fee ratio. access is the shared halt gate for the
// whole settlement core (C1).
func NewHTLCEngine(access *AccessControl, clock Clock, events *EventBus) *HTLCEngine {
	return &HTLCEngine{
		records:    make(map[common.Hash]*HTLCRecord),
		baseWindow: DefaultBaseWindow,
		clock:      clock,
		events:     events,
		access:     access,
	}
}

// AddHTLCTx creates a new Locked record. xHash must not already be in use.
func (e *HTLCEngine) AddHTLCTx(direction Direction, src, dst common.Address, xHash common.Hash, value *uint256.Int, firstHand bool, shadow common.Address) error {
	if err := e.access.RequireNotHalted(); err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return ErrInvalidArgument
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.records[xHash]; ok && existing.Status != HTLCStatusNone {
		return ErrHTLCStateViolation
	}

	lockedTime := e.baseWindow
	if firstHand {
		lockedTime = 2 * e.baseWindow
	}
	rec := &HTLCRecord{
		Direction:       direction,
		Source:          src,
		Destination:     dst,
		Value:           new(uint256.Int).Set(value),
		Status:          HTLCStatusLocked,
		BeginLockedTime: e.clock.Now(),
		LockedTime:      lockedTime,
		FirstHand:       firstHand,
	}
	if firstHand {
		rec.ShadowAddress = shadow
	}
	e.records[xHash] = rec
	return nil
}

// RefundHTLCTx transitions a Locked record to Refunded. caller must be
// the record's destination and the window must not have expired.
func (e *HTLCEngine) RefundHTLCTx(caller common.Address, xHash common.Hash, direction Direction) (*HTLCRecord, error) {
	if err := e.access.RequireNotHalted(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[xHash]
	if !ok || rec.Status != HTLCStatusLocked {
		return nil, ErrHTLCStateViolation
	}
	if rec.Direction != direction {
		return nil, ErrHTLCStateViolation
	}
	if caller != rec.Destination {
		return nil, ErrUnauthorized
	}
	now := e.clock.Now()
	if now >= rec.BeginLockedTime+rec.LockedTime {
		return nil, ErrHTLCTimingViolation
	}
	rec.Status = HTLCStatusRefunded
	return rec.clone(), nil
}

// RevokeHTLCTx transitions a Locked, expired record to Revoked. caller
// must be the source (strict mode, loose=false) or either source or
// destination (loose mode, loose=true).
func (e *HTLCEngine) RevokeHTLCTx(caller common.Address, xHash common.Hash, direction Direction, loose bool) (*HTLCRecord, error) {
	if err := e.access.RequireNotHalted(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[xHash]
	if !ok || rec.Status != HTLCStatusLocked {
		return nil, ErrHTLCStateViolation
	}
	if rec.Direction != direction {
		return nil, ErrHTLCStateViolation
	}
	authorized := caller == rec.Source || (loose && caller == rec.Destination)
	if !authorized {
		return nil, ErrUnauthorized
	}
	now := e.clock.Now()
	if now < rec.BeginLockedTime+rec.LockedTime {
		return nil, ErrHTLCTimingViolation
	}
	rec.Status = HTLCStatusRevoked
	return rec.clone(), nil
}

// GetRecord returns a defensive copy of the record for xHash, if any.
func (e *HTLCEngine) GetRecord(xHash common.Hash) (*HTLCRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.records[xHash]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// XHashExist reports whether xHash has ever been used (status != None).
func (e *HTLCEngine) XHashExist(xHash common.Hash) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.records[xHash]
	return ok && rec.Status != HTLCStatusNone
}

// GetHTLCLeftLockedTime returns the remaining seconds before expiry for
// a Locked entry, MaxTimeSentinel for an xHash never used, and zero for
// expired or terminal entries.
func (e *HTLCEngine) GetHTLCLeftLockedTime(xHash common.Hash) *uint256.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.records[xHash]
	if !ok || rec.Status == HTLCStatusNone {
		return new(uint256.Int).Set(MaxTimeSentinel)
	}
	if rec.Status != HTLCStatusLocked {
		return uint256.NewInt(0)
	}
	now := e.clock.Now()
	end := rec.BeginLockedTime + rec.LockedTime
	if now >= end {
		return uint256.NewInt(0)
	}
	return uint256.NewInt(end - now)
}

// SetLockedTime updates the base window. Owner, halted only.
func (e *HTLCEngine) SetLockedTime(caller common.Address, seconds uint64) error {
	if err := e.access.RequireHalted(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseWindow = seconds
	return nil
}

// SetRevokeFeeRatio updates the revoke fee split ratio. Owner, halted only.
func (e *HTLCEngine) SetRevokeFeeRatio(caller common.Address, ratio uint64) error {
	if ratio > RatioPrecise {
		return ErrInvalidArgument
	}
	if err := e.access.RequireHalted(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revokeFeeRatio = ratio
	return nil
}

func (e *HTLCEngine) RevokeFeeRatio() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revokeFeeRatio
}

func (e *HTLCEngine) BaseWindow() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.baseWindow
}
