//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package exec

import (
	"sort"
	"sync"
	"time"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/event"
)

// NodeStatus is the observable execution state of a node. Status exists for
// the UI and observability only; scheduling is driven by tokens alone.
type NodeStatus string

const (
	// StatusPending means the node has not fired yet.
	StatusPending NodeStatus = "PENDING"
	// StatusRunning means a handler invocation is in flight.
	StatusRunning NodeStatus = "RUNNING"
	// StatusCompleted means the last firing succeeded.
	StatusCompleted NodeStatus = "COMPLETED"
	// StatusFailed means the last firing failed permanently.
	StatusFailed NodeStatus = "FAILED"
	// StatusSkipped means the node never became ready.
	StatusSkipped NodeStatus = "SKIPPED"
	// StatusMaxIterReached means the node hit its iteration limit.
	StatusMaxIterReached NodeStatus = "MAXITER_REACHED"
	// StatusPaused means the node is waiting on an interactive response.
	StatusPaused NodeStatus = "PAUSED"
	// StatusAborted means the execution was cancelled while the node ran.
	StatusAborted NodeStatus = "ABORTED"
)

// NodeState is the per-node, per-execution observable state.
type NodeState struct {
	Status         NodeStatus
	StartedAt      time.Time
	EndedAt        time.Time
	ExecutionCount int
	LastOutput     *envelope.Envelope
	Error          string
	Epoch          int
}

// Tracker observes node transitions for the UI. Every transition emits a
// typed event; the scheduler never reads statuses back to make decisions.
type Tracker struct {
	mu     sync.Mutex
	execID diagram.ExecutionID
	bus    *event.Bus
	states map[diagram.NodeID]*NodeState
}

// NewTracker creates a tracker with every node pending.
func NewTracker(execID diagram.ExecutionID, bus *event.Bus, d *diagram.ExecutableDiagram) *Tracker {
	states := make(map[diagram.NodeID]*NodeState, len(d.Nodes))
	for id := range d.Nodes {
		states[id] = &NodeState{Status: StatusPending}
	}
	return &Tracker{execID: execID, bus: bus, states: states}
}

// TransitionToRunning marks the node running in the given epoch.
func (t *Tracker) TransitionToRunning(node diagram.NodeID, epoch int) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusRunning
	s.StartedAt = time.Now()
	s.Epoch = epoch
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeNodeStarted,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{event.KeyEpoch: epoch})))
}

// TransitionToCompleted marks the node completed and records its output.
func (t *Tracker) TransitionToCompleted(node diagram.NodeID, output *envelope.Envelope) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusCompleted
	s.EndedAt = time.Now()
	s.ExecutionCount++
	s.LastOutput = output
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeNodeCompleted,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{event.KeyStatus: string(StatusCompleted)})))
	if output != nil {
		t.bus.Publish(event.New(t.execID, event.TypeNodeOutput,
			event.WithNodeID(node),
			event.WithPayload(map[string]any{event.KeyOutput: output.AsText()})))
	}
}

// TransitionToFailed marks the node failed and reports the typed error.
func (t *Tracker) TransitionToFailed(node diagram.NodeID, execErr *Error) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusFailed
	s.EndedAt = time.Now()
	s.Error = execErr.Error()
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeNodeError,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{
			event.KeyError:     execErr.Message,
			event.KeyErrorCode: string(execErr.Code),
			event.KeyRetryable: false,
		})))
}

// TransitionToAborted marks a node whose firing was cut short by
// cancellation and reports it before the terminal event goes out.
func (t *Tracker) TransitionToAborted(node diagram.NodeID, execErr *Error) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusAborted
	s.EndedAt = time.Now()
	s.Error = execErr.Error()
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeNodeError,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{
			event.KeyError:     execErr.Message,
			event.KeyErrorCode: string(execErr.Code),
			event.KeyRetryable: false,
		})))
}

// TransitionToSkipped marks a node that never became ready.
func (t *Tracker) TransitionToSkipped(node diagram.NodeID, reason string) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusSkipped
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeExecutionLog,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{
			event.KeyMessage: "skipped: " + reason,
			event.KeyStatus:  string(StatusSkipped),
		})))
}

// TransitionToMaxIter marks a node that hit its iteration limit.
func (t *Tracker) TransitionToMaxIter(node diagram.NodeID) {
	t.mu.Lock()
	s := t.states[node]
	s.Status = StatusMaxIterReached
	s.EndedAt = time.Now()
	t.mu.Unlock()

	t.bus.Publish(event.New(t.execID, event.TypeExecutionLog,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{
			event.KeyStatus: string(StatusMaxIterReached),
		})))
}

// RetryAttempt reports a retryable failure without changing the status.
func (t *Tracker) RetryAttempt(node diagram.NodeID, execErr *Error, attempt int) {
	t.bus.Publish(event.New(t.execID, event.TypeNodeError,
		event.WithNodeID(node),
		event.WithPayload(map[string]any{
			event.KeyError:     execErr.Message,
			event.KeyErrorCode: string(execErr.Code),
			event.KeyRetryable: true,
			event.KeyAttempt:   attempt,
		})))
}

// State returns a copy of the node's state.
func (t *Tracker) State(node diagram.NodeID) NodeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[node]; ok {
		return *s
	}
	return NodeState{}
}

// ExecutionCount returns how many times the node completed.
func (t *Tracker) ExecutionCount(node diagram.NodeID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[node]; ok {
		return s.ExecutionCount
	}
	return 0
}

// Duration returns how long the node's last firing took.
func (t *Tracker) Duration(node diagram.NodeID) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[node]
	if !ok || s.StartedAt.IsZero() || s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// LastOutput returns the node's most recent output.
func (t *Tracker) LastOutput(node diagram.NodeID) *envelope.Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[node]; ok {
		return s.LastOutput
	}
	return nil
}

// NodesWithStatus returns the nodes currently in the given status, sorted.
func (t *Tracker) NodesWithStatus(status NodeStatus) []diagram.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []diagram.NodeID
	for id, s := range t.states {
		if s.Status == status {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
