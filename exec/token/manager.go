//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package token implements the data-flow protocol of the execution engine.
// Tokens on edges are the only mechanism by which node readiness is
// determined and values are transferred; node status never participates.
package token

import (
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
)

// Token is an envelope placed on an edge in a specific epoch.
type Token struct {
	Envelope *envelope.Envelope
	Epoch    int
}

// Manager owns the per-edge token buffers of one execution. All methods are
// safe for concurrent use; critical sections are bounded and never suspend.
type Manager struct {
	mu      sync.Mutex
	diagram *diagram.ExecutableDiagram
	queues  map[diagram.ArrowID][]Token
	epoch   int

	// fired counts successful ConsumeInbound calls per node; FIRST_ONLY
	// gating depends on it.
	fired map[diagram.NodeID]int

	emitted  map[diagram.ArrowID]int
	consumed map[diagram.ArrowID]int
	dropped  map[diagram.ArrowID]int
}

// NewManager creates a token manager for one execution of the diagram.
func NewManager(d *diagram.ExecutableDiagram) *Manager {
	return &Manager{
		diagram:  d,
		queues:   make(map[diagram.ArrowID][]Token),
		fired:    make(map[diagram.NodeID]int),
		emitted:  make(map[diagram.ArrowID]int),
		consumed: make(map[diagram.ArrowID]int),
		dropped:  make(map[diagram.ArrowID]int),
	}
}

// CurrentEpoch returns the active epoch. Epochs begin at 0 and increase
// monotonically across loop iterations.
func (m *Manager) CurrentEpoch() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// BeginEpoch starts a new epoch and returns it. Tokens emitted in earlier
// epochs are dropped, so a loop body restarts from a clean slate.
func (m *Manager) BeginEpoch() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beginEpochLocked()
}

func (m *Manager) beginEpochLocked() int {
	m.epoch++
	for id, q := range m.queues {
		kept := q[:0]
		for _, tok := range q {
			if tok.Epoch >= m.epoch {
				kept = append(kept, tok)
			} else {
				m.dropped[id]++
			}
		}
		m.queues[id] = kept
	}
	return m.epoch
}

// HasNewInputs reports whether the node's join predicate is satisfied by
// tokens at the given epoch or later.
func (m *Manager) HasNewInputs(node diagram.NodeID, epoch int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selectLocked(node, epoch)
	return ok
}

// FireCount returns how many times the node has consumed its inputs.
func (m *Manager) FireCount(node diagram.NodeID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired[node]
}

// Peek returns the tokens that ConsumeInbound would remove, keyed by edge,
// without consuming them. It returns nil when the node is not ready.
func (m *Manager) Peek(node diagram.NodeID, epoch int) map[diagram.ArrowID]Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.selectLocked(node, epoch)
	if !ok {
		return nil
	}
	out := make(map[diagram.ArrowID]Token, len(sel))
	for _, id := range sel {
		out[id] = m.queues[id][0]
	}
	return out
}

// ConsumeInbound atomically removes one token from every inbound edge
// selected by the node's join policy. An ANY firing additionally drains
// every other eligible token queued on the inbound edges, so a backlog
// cannot re-fire the node. It returns the consumed head tokens keyed by
// edge, or nil when the node is not ready.
func (m *Manager) ConsumeInbound(node diagram.NodeID, epoch int) map[diagram.ArrowID]Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.selectLocked(node, epoch)
	if !ok {
		return nil
	}
	out := make(map[diagram.ArrowID]Token, len(sel))
	for _, id := range sel {
		out[id] = m.queues[id][0]
		m.queues[id] = m.queues[id][1:]
		m.consumed[id]++
	}
	if n, ok := m.diagram.Node(node); ok && n.Join == diagram.JoinAny {
		for _, e := range m.diagram.Incoming(node) {
			kept := m.queues[e.ID][:0]
			for _, tok := range m.queues[e.ID] {
				if tok.Epoch >= epoch {
					m.consumed[e.ID]++
				} else {
					kept = append(kept, tok)
				}
			}
			m.queues[e.ID] = kept
		}
	}
	m.fired[node]++
	return out
}

// EmitOutputs pushes one token onto every outgoing edge of each named
// output port. Emitting on a loop-back edge begins a new epoch before the
// token is placed, so the re-seeded loop body runs in the fresh epoch.
// It returns the epoch the tokens were tagged with.
func (m *Manager) EmitOutputs(node diagram.NodeID, outputs map[string]*envelope.Envelope, epoch int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	loopBack := false
	for port := range outputs {
		for _, edge := range m.diagram.OutgoingFrom(node, port) {
			if edge.Hints.IsLoopBack {
				loopBack = true
			}
		}
	}
	if loopBack {
		epoch = m.beginEpochLocked()
	}

	for port, env := range outputs {
		if env == nil {
			continue
		}
		for _, edge := range m.diagram.OutgoingFrom(node, port) {
			m.queues[edge.ID] = append(m.queues[edge.ID], Token{Envelope: env, Epoch: epoch})
			m.emitted[edge.ID]++
		}
	}
	return epoch
}

// selectLocked applies the node's join policy and returns the edges a
// firing would consume from. Per-edge order is FIFO: only head tokens are
// eligible.
func (m *Manager) selectLocked(node diagram.NodeID, epoch int) ([]diagram.ArrowID, bool) {
	n, ok := m.diagram.Node(node)
	if !ok {
		return nil, false
	}
	edges := m.diagram.Incoming(node)
	if len(edges) == 0 {
		return nil, false
	}

	head := func(e *diagram.ExecutableEdge) (Token, bool) {
		q := m.queues[e.ID]
		if len(q) == 0 || q[0].Epoch < epoch {
			return Token{}, false
		}
		return q[0], true
	}

	switch n.Join {
	case diagram.JoinAny:
		var sel []diagram.ArrowID
		for _, e := range edges {
			if _, ok := head(e); ok {
				sel = append(sel, e.ID)
			}
		}
		return sel, len(sel) > 0

	case diagram.JoinFirstOnly:
		first := m.fired[node] == 0
		var sel []diagram.ArrowID
		satisfied := false
		for _, e := range edges {
			_, has := head(e)
			if !has {
				continue
			}
			switch {
			case e.Hints.IsConversationState:
				// Conversation state is always consumed.
				sel = append(sel, e.ID)
			case first && e.Hints.IsFirstOnly:
				sel = append(sel, e.ID)
				satisfied = true
			case !first && !e.Hints.IsFirstOnly:
				sel = append(sel, e.ID)
				satisfied = true
			}
		}
		return sel, satisfied

	default: // JoinAll
		sel := make([]diagram.ArrowID, 0, len(edges))
		for _, e := range edges {
			if _, ok := head(e); !ok {
				return nil, false
			}
			sel = append(sel, e.ID)
		}
		return sel, true
	}
}

// Emitted returns how many tokens were emitted on the edge.
func (m *Manager) Emitted(edge diagram.ArrowID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitted[edge]
}

// Consumed returns how many tokens were consumed from the edge.
func (m *Manager) Consumed(edge diagram.ArrowID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consumed[edge]
}

// Dropped returns how many tokens were discarded on epoch transitions.
func (m *Manager) Dropped(edge diagram.ArrowID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped[edge]
}

// Remaining returns how many tokens are buffered on the edge.
func (m *Manager) Remaining(edge diagram.ArrowID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[edge])
}
