// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// GroupAdminRegistry is the storeman-group-admin registry's narrow
// read surface consumed by the HTLC handler for fee calculation. It is
// an external collaborator out of scope for this package; callers bind
// a concrete implementation through Handler.SetStoremanGroupAdmin.
type GroupAdminRegistry interface {
	// Coin2WanRatio is the base-asset-to-wrapped-token conversion ratio
	// for asset, scaled by Precise().
	Coin2WanRatio(asset common.Address) (*uint256.Int, error)
	// TxFeeRatio is the per-group transaction fee ratio for asset,
	// scaled by Precise().
	TxFeeRatio(asset, group common.Address) (*uint256.Int, error)
	// Precise is the fixed-point denominator both ratios are scaled by.
	Precise() *uint256.Int
	// CoinDecimals is the base asset's decimal precision.
	CoinDecimals(asset common.Address) (uint8, error)
}

// StaticGroupAdminRegistry is a simple in-memory GroupAdminRegistry
// for tests and single-operator deployments; a production deployment
// wires a real admin-registry client in its place.
type StaticGroupAdminRegistry struct {
	mu sync.RWMutex

	precise  *uint256.Int
	coin2Wan map[common.Address]*uint256.Int
	txFee    map[[2]common.Address]*uint256.Int
	decimals map[common.Address]uint8
}

func NewStaticGroupAdminRegistry(precise *uint256.Int) *StaticGroupAdminRegistry {
	return &StaticGroupAdminRegistry{
		precise:  new(uint256.Int).Set(precise),
		coin2Wan: make(map[common.Address]*uint256.Int),
		txFee:    make(map[[2]common.Address]*uint256.Int),
		decimals: make(map[common.Address]uint8),
	}
}

func (r *StaticGroupAdminRegistry) SetCoin2WanRatio(asset common.Address, ratio *uint256.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coin2Wan[asset] = new(uint256.Int).Set(ratio)
}

func (r *StaticGroupAdminRegistry) SetTxFeeRatio(asset, group common.Address, ratio *uint256.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txFee[[2]common.Address{asset, group}] = new(uint256.Int).Set(ratio)
}

func (r *StaticGroupAdminRegistry) SetCoinDecimals(asset common.Address, decimals uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decimals[asset] = decimals
}

func (r *StaticGroupAdminRegistry) Coin2WanRatio(asset common.Address) (*uint256.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.coin2Wan[asset]
	if !ok {
		return nil, ErrNotRegistered
	}
	return new(uint256.Int).Set(v), nil
}

func (r *StaticGroupAdminRegistry) TxFeeRatio(asset, group common.Address) (*uint256.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.txFee[[2]common.Address{asset, group}]
	if !ok {
		return nil, ErrNotRegistered
	}
	return new(uint256.Int).Set(v), nil
}

func (r *StaticGroupAdminRegistry) Precise() *uint256.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return new(uint256.Int).Set(r.precise)
}

func (r *StaticGroupAdminRegistry) CoinDecimals(asset common.Address) (uint8, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decimals[asset]
	if !ok {
		return 0, ErrNotRegistered
	}
	return d, nil
}
