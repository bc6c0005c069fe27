// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
)

// TokenConfig names the wrapped asset a SettlementCore manages.
type TokenConfig struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// SettlementCore is an instance of C1-C5 for a single asset pair: the
// shared halt gate, the wrapped token, the quota ledger, the HTLC
// engine, and the direction-specific handler. The handler is not bound
// to the quota ledger or to a group-admin registry here; until the
// owner calls Handler.SetWtokenManager and Handler.SetStoremanGroupAdmin
// while halted, every handler operation fails with ErrNotInitialized.
//
// Wiring follows the fixed-order, late-binding pattern of the
// cyclic-reference design note: quotaIdentity and handlerIdentity are
// addresses chosen by the deployer before any component exists, then
// passed into each constructor in turn so every authorization check is
// a plain address comparison rather than a live back-reference.
type SettlementCore struct {
	Access  *AccessControl
	Token   *WrappedToken
	Quota   *QuotaLedger
	HTLC    *HTLCEngine
	Handler *Handler
	Events  *EventBus
}

// NewSettlementCore wires one asset pair's worth of C1-C5.
//
// owner is the C1 admin identity. groupAdmin is authorized to
// register/unregister storeman groups. quotaIdentity and
// handlerIdentity are deployer-chosen addresses identifying C3 and C5
// to each other and to C2; they need not correspond to any real
// on-chain account.
func NewSettlementCore(
	owner, groupAdmin, quotaIdentity, handlerIdentity, asset common.Address,
	cfg TokenConfig, clock Clock, logger log.Logger,
) *SettlementCore {
	access := NewAccessControl(owner)
	events := NewEventBus()

	token := NewWrappedToken(cfg.Name, cfg.Symbol, cfg.Decimals, quotaIdentity, access, events)
	quota := NewQuotaLedger(quotaIdentity, groupAdmin, handlerIdentity, handlerIdentity, token, access, events, clock, owner)
	htlc := NewHTLCEngine(access, clock, events)
	handler := NewHandler(handlerIdentity, asset, access, htlc, token, clock, events, logger)

	return &SettlementCore{
		Access:  access,
		Token:   token,
		Quota:   quota,
		HTLC:    htlc,
		Handler: handler,
		Events:  events,
	}
}
