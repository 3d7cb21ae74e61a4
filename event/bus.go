//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"sync"

	"github.com/google/uuid"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/log"
)

const defaultHighWaterMark = 256

// Wildcard subscribes to events of every execution (log sinks).
const Wildcard diagram.ExecutionID = ""

// Bus is the process-wide event bus. Publish never blocks: each subscriber
// owns a buffered channel, and a subscriber whose buffer is full at
// publication time is detached with a SUBSCRIBER_DROPPED diagnostic.
type Bus struct {
	mu        sync.RWMutex
	subs      map[string]*subscriber
	seq       map[diagram.ExecutionID]uint64
	highWater int
	closed    bool
}

type subscriber struct {
	id     string
	execID diagram.ExecutionID
	ch     chan *Event
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithHighWaterMark sets the per-subscriber buffer size above which the
// slowest subscriber is detached.
func WithHighWaterMark(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.highWater = n
		}
	}
}

// NewBus creates an event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		subs:      make(map[string]*subscriber),
		seq:       make(map[diagram.ExecutionID]uint64),
		highWater: defaultHighWaterMark,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is a live event stream. Events arrives in publication order;
// the channel is closed when the subscription is cancelled, the bus closes,
// or the subscriber falls too far behind.
type Subscription struct {
	ID     string
	Events <-chan *Event
	cancel func()
}

// Cancel detaches the subscription from the bus.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Subscribe registers a subscriber for one execution. Use Wildcard to
// receive events of every execution.
func (b *Bus) Subscribe(execID diagram.ExecutionID) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &subscriber{
		id:     uuid.NewString(),
		execID: execID,
		ch:     make(chan *Event, b.highWater),
	}
	if b.closed {
		close(sub.ch)
		return &Subscription{ID: sub.id, Events: sub.ch}
	}
	b.subs[sub.id] = sub
	return &Subscription{
		ID:     sub.id,
		Events: sub.ch,
		cancel: func() { b.unsubscribe(sub.id) },
	}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish stamps the event with the next sequence number of its execution
// and fans it out. It returns immediately and never blocks the caller.
func (b *Bus) Publish(evt *Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.seq[evt.ExecutionID]++
	evt.Sequence = b.seq[evt.ExecutionID]

	var dropped []*subscriber
	for _, sub := range b.subs {
		if sub.execID != Wildcard && sub.execID != evt.ExecutionID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			dropped = append(dropped, sub)
		}
	}
	for _, sub := range dropped {
		delete(b.subs, sub.id)
		close(sub.ch)
	}
	b.mu.Unlock()

	for _, sub := range dropped {
		log.Warnf("event bus: detached slow subscriber %s (execution %s)",
			sub.id, evt.ExecutionID)
		b.Publish(New(evt.ExecutionID, TypeSubscriberDropped,
			WithPayload(map[string]any{KeySubscriberID: sub.id})))
	}
}

// Sequence returns the last sequence number stamped for an execution.
func (b *Bus) Sequence(execID diagram.ExecutionID) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq[execID]
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
