// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// mockClock is an injectable Clock for deterministic HTLC expiry tests.
type mockClock struct {
	t uint64
}

func newMockClock(t uint64) *mockClock { return &mockClock{t: t} }

func (c *mockClock) Now() uint64 { return c.t }

func (c *mockClock) Advance(seconds uint64) { c.t += seconds }

func (c *mockClock) Set(t uint64) { c.t = t }

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func hashOf(b byte) common.Hash {
	var h common.Hash
	h[31] = b
	return h
}

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }
