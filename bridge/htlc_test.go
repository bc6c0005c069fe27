// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func newTestHTLCEngine(clock *mockClock) (*HTLCEngine, *AccessControl) {
	ac := NewAccessControl(addr(1))
	return NewHTLCEngine(ac, clock, NewEventBus()), ac
}

func TestAddHTLCTxLocksRecord(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)

	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))

	rec, ok := e.GetRecord(x)
	require.True(t, ok)
	require.Equal(t, HTLCStatusLocked, rec.Status)
	require.Equal(t, DirectionCoin2Wtoken, rec.Direction)
	require.Equal(t, uint64(1000), rec.BeginLockedTime)
	require.Equal(t, DefaultBaseWindow, rec.LockedTime)
}

func TestAddHTLCTxFirstHandDoublesWindow(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	x := hashOf(1)
	shadow := addr(9)

	require.NoError(t, e.AddHTLCTx(DirectionWtoken2Coin, addr(2), addr(3), x, u(500), true, shadow))
	rec, _ := e.GetRecord(x)
	require.Equal(t, 2*DefaultBaseWindow, rec.LockedTime)
	require.Equal(t, shadow, rec.ShadowAddress)
}

func TestAddHTLCTxRejectsZeroValueAndCollision(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	x := hashOf(1)

	require.ErrorIs(t, e.AddHTLCTx(DirectionCoin2Wtoken, addr(2), addr(3), x, u(0), false, common.Address{}), ErrInvalidArgument)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, addr(2), addr(3), x, u(500), false, common.Address{}))
	require.ErrorIs(t, e.AddHTLCTx(DirectionWtoken2Coin, addr(4), addr(5), x, u(1), false, common.Address{}), ErrHTLCStateViolation)
}

func TestRefundHTLCTxBeforeExpiry(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))

	clock.Advance(DefaultBaseWindow - 1)
	rec, err := e.RefundHTLCTx(dst, x, DirectionCoin2Wtoken)
	require.NoError(t, err)
	require.Equal(t, HTLCStatusRefunded, rec.Status)
}

func TestRefundHTLCTxAtExpiryRejected(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))

	clock.Advance(DefaultBaseWindow)
	_, err := e.RefundHTLCTx(dst, x, DirectionCoin2Wtoken)
	require.ErrorIs(t, err, ErrHTLCTimingViolation)
}

func TestRefundHTLCTxWrongCallerOrDirectionOrStatus(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))

	_, err := e.RefundHTLCTx(src, x, DirectionCoin2Wtoken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.RefundHTLCTx(dst, x, DirectionWtoken2Coin)
	require.ErrorIs(t, err, ErrHTLCStateViolation)

	_, err = e.RefundHTLCTx(dst, hashOf(2), DirectionCoin2Wtoken)
	require.ErrorIs(t, err, ErrHTLCStateViolation)
}

func TestRevokeHTLCTxAtExpirySucceeds(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))

	clock.Advance(DefaultBaseWindow - 1)
	_, err := e.RevokeHTLCTx(src, x, DirectionCoin2Wtoken, false)
	require.ErrorIs(t, err, ErrHTLCTimingViolation)

	clock.Advance(1)
	rec, err := e.RevokeHTLCTx(src, x, DirectionCoin2Wtoken, false)
	require.NoError(t, err)
	require.Equal(t, HTLCStatusRevoked, rec.Status)
}

func TestRevokeHTLCTxStrictVsLooseCaller(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionWtoken2Coin, src, dst, x, u(500), true, addr(9)))
	clock.Advance(2 * DefaultBaseWindow)

	_, err := e.RevokeHTLCTx(dst, x, DirectionWtoken2Coin, false)
	require.ErrorIs(t, err, ErrUnauthorized, "strict mode requires source")

	rec, err := e.RevokeHTLCTx(dst, x, DirectionWtoken2Coin, true)
	require.NoError(t, err, "loose mode accepts destination")
	require.Equal(t, HTLCStatusRevoked, rec.Status)
}

func TestTerminalTransitionsAreFinal(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	src, dst, x := addr(2), addr(3), hashOf(1)
	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, src, dst, x, u(500), false, common.Address{}))
	clock.Advance(DefaultBaseWindow)
	_, err := e.RevokeHTLCTx(src, x, DirectionCoin2Wtoken, false)
	require.NoError(t, err)

	_, err = e.RevokeHTLCTx(src, x, DirectionCoin2Wtoken, false)
	require.ErrorIs(t, err, ErrHTLCStateViolation)
	_, err = e.RefundHTLCTx(dst, x, DirectionCoin2Wtoken)
	require.ErrorIs(t, err, ErrHTLCStateViolation)
}

func TestGetHTLCLeftLockedTime(t *testing.T) {
	clock := newMockClock(1000)
	e, _ := newTestHTLCEngine(clock)
	x := hashOf(1)

	require.Equal(t, MaxTimeSentinel, e.GetHTLCLeftLockedTime(x))

	require.NoError(t, e.AddHTLCTx(DirectionCoin2Wtoken, addr(2), addr(3), x, u(500), false, common.Address{}))
	require.Equal(t, u(DefaultBaseWindow), e.GetHTLCLeftLockedTime(x))

	clock.Advance(DefaultBaseWindow - 1)
	require.Equal(t, u(1), e.GetHTLCLeftLockedTime(x))

	clock.Advance(1)
	require.True(t, e.GetHTLCLeftLockedTime(x).IsZero())
}

func TestSetLockedTimeAndRevokeFeeRatioRequireHaltedOwner(t *testing.T) {
	clock := newMockClock(1000)
	e, ac := newTestHTLCEngine(clock)
	owner := addr(1)

	require.ErrorIs(t, e.SetLockedTime(owner, 7200), ErrSystemNotHalted)
	require.NoError(t, ac.SetHalted(owner, true))
	require.NoError(t, e.SetLockedTime(owner, 7200))
	require.Equal(t, uint64(7200), e.BaseWindow())

	require.ErrorIs(t, e.SetRevokeFeeRatio(owner, RatioPrecise+1), ErrInvalidArgument)
	require.NoError(t, e.SetRevokeFeeRatio(owner, 3000))
	require.Equal(t, uint64(3000), e.RevokeFeeRatio())

	require.ErrorIs(t, e.SetLockedTime(addr(99), 1), ErrUnauthorized)
}
