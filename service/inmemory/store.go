//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/event"
)

// MessageStore is an append-only, in-process event store keyed by
// execution. Events are retained in append order, which matches sequence
// order because the bus stamps sequences at publication.
type MessageStore struct {
	mu     sync.RWMutex
	events map[diagram.ExecutionID][]*event.Event
}

// NewMessageStore creates an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{events: make(map[diagram.ExecutionID][]*event.Event)}
}

// Append implements service.MessageStore.
func (s *MessageStore) Append(ctx context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[evt.ExecutionID] = append(s.events[evt.ExecutionID], evt.Clone())
	return nil
}

// Query implements service.MessageStore. The range is inclusive on both
// ends; to == 0 means unbounded.
func (s *MessageStore) Query(ctx context.Context, execID diagram.ExecutionID,
	from, to uint64) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*event.Event
	for _, evt := range s.events[execID] {
		if evt.Sequence < from {
			continue
		}
		if to != 0 && evt.Sequence > to {
			continue
		}
		out = append(out, evt)
	}
	return out, nil
}

// Executions returns the IDs of executions with stored events.
func (s *MessageStore) Executions() []diagram.ExecutionID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]diagram.ExecutionID, 0, len(s.events))
	for id := range s.events {
		out = append(out, id)
	}
	return out
}

// Sink persists every bus event into a message store until stopped.
type Sink struct {
	sub   *event.Subscription
	done  chan struct{}
	store *MessageStore
}

// NewSink taps the bus with a wildcard subscription and copies each event
// into the store.
func NewSink(bus *event.Bus, store *MessageStore) *Sink {
	s := &Sink{
		sub:   bus.Subscribe(event.Wildcard),
		done:  make(chan struct{}),
		store: store,
	}
	go s.run()
	return s
}

func (s *Sink) run() {
	defer close(s.done)
	for evt := range s.sub.Events {
		_ = s.store.Append(context.Background(), evt)
	}
}

// Close detaches the sink and waits for the tail to drain.
func (s *Sink) Close() {
	s.sub.Cancel()
	<-s.done
}
