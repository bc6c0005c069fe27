// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"sync"

	"github.com/luxfi/geth/common"
)

// Event topic names, matching the protocol event list of the external
// interfaces section. "!" markers on the indexed arguments there are
// not tracked here; consumers filter on Topic and read Fields in order.
const (
	TopicInboundLock       = "InboundLock"
	TopicInboundRefund     = "InboundRefund"
	TopicInboundRevoke     = "InboundRevoke"
	TopicOutboundLock      = "OutboundLock"
	TopicOutboundRefund    = "OutboundRefund"
	TopicOutboundRevoke    = "OutboundRevoke"
	TopicTokenMinted       = "TokenMinted"
	TopicTokenBurnt        = "TokenBurnt"
	TopicTokenLocked       = "TokenLocked"
	TopicGroupRegistered   = "GroupRegistered"
	TopicGroupUnregistered = "GroupUnregistered"
	TopicManagerSet        = "ManagerSet"
)

// Event is one entry in the append-only log stream, modeled on
// ethtypes.Log's (address, topics, data) shape but expressed as plain
// Go values since there is no ABI encoding layer in this library.
type Event struct {
	Topic     string
	Address   common.Address
	Fields    []any
	Timestamp uint64
}

// EventBus is the append-only, topic-keyed log stream off-chain
// relayers observe to propagate preimages and track settlement state.
type EventBus struct {
	mu  sync.RWMutex
	log []Event
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Emit appends an event. It never fails: logging must not be able to
// roll back a settlement that already succeeded.
func (b *EventBus) Emit(topic string, addr common.Address, timestamp uint64, fields ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, Event{Topic: topic, Address: addr, Fields: fields, Timestamp: timestamp})
}

// Filter returns every event recorded under topic, in emission order.
func (b *EventBus) Filter(topic string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, 0)
	for _, e := range b.log {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// All returns every event recorded, in emission order.
func (b *EventBus) All() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.log))
	copy(out, b.log)
	return out
}
