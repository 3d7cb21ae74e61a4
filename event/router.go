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
	"context"
	"fmt"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
)

const defaultReplayWindow = 512

// Router maps executions to subscription consumers. It keeps a rolling
// window of recent events per execution so that subscribers registering
// after an execution began can catch up, filters log streams, and
// correlates interactive prompts with their responses.
type Router struct {
	bus    *Bus
	window int

	mu      sync.Mutex
	history map[diagram.ExecutionID][]*Event
	waiters map[promptKey]chan any

	tap  *Subscription
	done chan struct{}
}

type promptKey struct {
	exec diagram.ExecutionID
	node diagram.NodeID
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithReplayWindow sets how many recent events per execution are retained
// for late subscribers.
func WithReplayWindow(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.window = n
		}
	}
}

// NewRouter creates a router on top of the bus and starts its recording tap.
func NewRouter(bus *Bus, opts ...RouterOption) *Router {
	r := &Router{
		bus:     bus,
		window:  defaultReplayWindow,
		history: make(map[diagram.ExecutionID][]*Event),
		waiters: make(map[promptKey]chan any),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tap = bus.Subscribe(Wildcard)
	go r.record()
	return r
}

func (r *Router) record() {
	defer close(r.done)
	for evt := range r.tap.Events {
		r.mu.Lock()
		buf := append(r.history[evt.ExecutionID], evt)
		if len(buf) > r.window {
			buf = buf[len(buf)-r.window:]
		}
		r.history[evt.ExecutionID] = buf
		r.mu.Unlock()
	}
}

// Subscribe returns a stream of the execution's events. Events already in
// the replay window are delivered first, then live events; duplicates at
// the boundary are suppressed by sequence number.
func (r *Router) Subscribe(execID diagram.ExecutionID) *Subscription {
	live := r.bus.Subscribe(execID)

	r.mu.Lock()
	replay := make([]*Event, len(r.history[execID]))
	copy(replay, r.history[execID])
	r.mu.Unlock()

	out := make(chan *Event, r.window)
	go func() {
		defer close(out)
		var last uint64
		for _, evt := range replay {
			out <- evt
			last = evt.Sequence
		}
		for evt := range live.Events {
			if evt.Sequence <= last {
				continue
			}
			out <- evt
		}
	}()
	return &Subscription{ID: live.ID, Events: out, cancel: live.Cancel}
}

// ExecutionLogs returns only the EXECUTION_LOG events of an execution.
func (r *Router) ExecutionLogs(execID diagram.ExecutionID) *Subscription {
	inner := r.Subscribe(execID)
	out := make(chan *Event, r.window)
	go func() {
		defer close(out)
		for evt := range inner.Events {
			if evt.Type == TypeExecutionLog {
				out <- evt
			}
		}
	}()
	return &Subscription{ID: inner.ID, Events: out, cancel: inner.Cancel}
}

// Prompt publishes an INTERACTIVE_PROMPT event and blocks until a response
// arrives via Respond or the context is cancelled.
func (r *Router) Prompt(ctx context.Context, execID diagram.ExecutionID,
	nodeID diagram.NodeID, prompt string) (any, error) {
	key := promptKey{exec: execID, node: nodeID}
	ch := make(chan any, 1)

	r.mu.Lock()
	if _, exists := r.waiters[key]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("prompt already pending for node %s", nodeID)
	}
	r.waiters[key] = ch
	r.mu.Unlock()

	r.bus.Publish(New(execID, TypeInteractivePrompt,
		WithNodeID(nodeID),
		WithPayload(map[string]any{KeyMessage: prompt})))

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.waiters, key)
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Respond resolves a pending prompt. It reports whether a waiter existed.
func (r *Router) Respond(execID diagram.ExecutionID, nodeID diagram.NodeID,
	value any) bool {
	key := promptKey{exec: execID, node: nodeID}

	r.mu.Lock()
	ch, ok := r.waiters[key]
	if ok {
		delete(r.waiters, key)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	ch <- value
	r.bus.Publish(New(execID, TypeInteractiveResponse,
		WithNodeID(nodeID),
		WithPayload(map[string]any{KeyResponse: value})))
	return true
}

// Close cancels the recording tap and waits for it to drain.
func (r *Router) Close() {
	r.tap.Cancel()
	<-r.done
}
