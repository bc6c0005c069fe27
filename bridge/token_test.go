// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func newTestToken() (*WrappedToken, *AccessControl, common.Address) {
	manager := addr(9)
	ac := NewAccessControl(addr(1))
	tok := NewWrappedToken("Wrapped BTC", "WBTC", 8, manager, ac, NewEventBus())
	return tok, ac, manager
}

func TestMintIncreasesBalanceAndSupply(t *testing.T) {
	tok, _, manager := newTestToken()
	to := addr(2)

	require.NoError(t, tok.Mint(manager, to, u(100)))
	require.Equal(t, u(100), tok.BalanceOf(to))
	require.Equal(t, u(100), tok.TotalSupply())
}

func TestMintRejectsUnauthorizedCaller(t *testing.T) {
	tok, _, _ := newTestToken()
	require.ErrorIs(t, tok.Mint(addr(99), addr(2), u(100)), ErrUnauthorized)
}

func TestMintRejectsZeroValueAndZeroRecipient(t *testing.T) {
	tok, _, manager := newTestToken()
	require.ErrorIs(t, tok.Mint(manager, addr(2), u(0)), ErrInvalidArgument)
	require.ErrorIs(t, tok.Mint(manager, common.Address{}, u(1)), ErrInvalidArgument)
}

func TestBurnDecreasesBalanceAndSupply(t *testing.T) {
	tok, _, manager := newTestToken()
	from := addr(2)
	require.NoError(t, tok.Mint(manager, from, u(100)))

	require.NoError(t, tok.Burn(manager, from, u(40)))
	require.Equal(t, u(60), tok.BalanceOf(from))
	require.Equal(t, u(60), tok.TotalSupply())
}

func TestBurnUnderflowRejected(t *testing.T) {
	tok, _, manager := newTestToken()
	require.ErrorIs(t, tok.Burn(manager, addr(2), u(1)), ErrQuotaExceeded)
}

func TestLockToMovesBalanceWithoutTouchingSupply(t *testing.T) {
	tok, _, manager := newTestToken()
	from, to := addr(2), addr(3)
	require.NoError(t, tok.Mint(manager, from, u(100)))

	require.NoError(t, tok.LockTo(manager, from, to, u(30)))
	require.Equal(t, u(70), tok.BalanceOf(from))
	require.Equal(t, u(30), tok.BalanceOf(to))
	require.Equal(t, u(100), tok.TotalSupply())
}

func TestLockToRejectsSelfTransfer(t *testing.T) {
	tok, _, manager := newTestToken()
	require.ErrorIs(t, tok.LockTo(manager, addr(2), addr(2), u(1)), ErrSelfTransfer)
}

func TestHaltedRejectsPrivilegedOps(t *testing.T) {
	tok, ac, manager := newTestToken()
	require.NoError(t, ac.SetHalted(addr(1), true))

	require.ErrorIs(t, tok.Mint(manager, addr(2), u(1)), ErrSystemHalted)
	require.ErrorIs(t, tok.Burn(manager, addr(2), u(1)), ErrSystemHalted)
	require.ErrorIs(t, tok.LockTo(manager, addr(2), addr(3), u(1)), ErrSystemHalted)
}

func TestTransferAndApprove(t *testing.T) {
	tok, _, manager := newTestToken()
	from, to, spender := addr(2), addr(3), addr(4)
	require.NoError(t, tok.Mint(manager, from, u(100)))

	require.NoError(t, tok.Approve(from, spender, u(50)))
	require.Equal(t, u(50), tok.Allowance(from, spender))

	require.NoError(t, tok.TransferFrom(spender, from, to, u(20)))
	require.Equal(t, u(80), tok.BalanceOf(from))
	require.Equal(t, u(20), tok.BalanceOf(to))
	require.Equal(t, u(30), tok.Allowance(from, spender))

	require.NoError(t, tok.Transfer(from, to, u(10)))
	require.Equal(t, u(70), tok.BalanceOf(from))
	require.Equal(t, u(30), tok.BalanceOf(to))
}

func TestTransferFromExceedingAllowanceFails(t *testing.T) {
	tok, _, manager := newTestToken()
	from, to, spender := addr(2), addr(3), addr(4)
	require.NoError(t, tok.Mint(manager, from, u(100)))
	require.NoError(t, tok.Approve(from, spender, u(5)))

	require.ErrorIs(t, tok.TransferFrom(spender, from, to, u(6)), ErrQuotaExceeded)
}
