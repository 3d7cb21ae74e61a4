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
	"context"
	"fmt"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/service"
)

// Handler implements the logic of one node type. Handlers are stateless:
// everything mutable lives in the node context or behind service ports, so
// one handler instance serves every execution concurrently.
type Handler interface {
	// NodeType reports which node type the handler serves.
	NodeType() diagram.NodeType
	// Execute runs one firing. Inputs are keyed by port; outputs are keyed
	// by output port ("default" unless the node fans out). The context
	// carries cancellation and the node's timeout.
	Execute(ctx context.Context, node *diagram.ExecutableNode,
		inputs map[string]*envelope.Envelope, nc *NodeContext) (map[string]*envelope.Envelope, error)
}

// NodeContext is the execution-scoped view handed to a handler invocation.
type NodeContext struct {
	ExecutionID diagram.ExecutionID
	// Epoch is the epoch the node fired in.
	Epoch int
	// ExecCount is how many times this node completed before this firing.
	ExecCount int
	// Variables is the execution-scoped variable map.
	Variables *Variables
	// Diagram is the read-only compiled diagram.
	Diagram *diagram.ExecutableDiagram
	// Services bundles the external ports.
	Services *service.Set
	// Tracker answers observability queries (execution counts, outputs).
	Tracker *Tracker
	// Conversations holds per-person message histories.
	Conversations *Conversations
}

// Variables is the execution-scoped variable mapping used for loop indices,
// branch outcomes and expression evaluation. Scope is one execution.
type Variables struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewVariables creates a variable map seeded with the given values.
func NewVariables(seed map[string]any) *Variables {
	m := make(map[string]any, len(seed))
	for k, v := range seed {
		m[k] = v
	}
	return &Variables{m: m}
}

// Get returns one variable.
func (v *Variables) Get(name string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[name]
	return val, ok
}

// Set stores one variable.
func (v *Variables) Set(name string, value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[name] = value
}

// Snapshot returns a copy of the variable map.
func (v *Variables) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.m))
	for k, val := range v.m {
		out[k] = val
	}
	return out
}

// Conversations holds the per-person conversation histories of one
// execution.
type Conversations struct {
	mu sync.Mutex
	m  map[diagram.PersonID][]service.Message
}

// NewConversations creates an empty conversation store.
func NewConversations() *Conversations {
	return &Conversations{m: make(map[diagram.PersonID][]service.Message)}
}

// History returns a copy of a person's messages.
func (c *Conversations) History(person diagram.PersonID) []service.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]service.Message, len(c.m[person]))
	copy(out, c.m[person])
	return out
}

// Append adds messages to a person's history.
func (c *Conversations) Append(person diagram.PersonID, msgs ...service.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[person] = append(c.m[person], msgs...)
}

// Registry maps node types to their handlers. It is frozen before the first
// execution; tests build registries with mock handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[diagram.NodeType]Handler
	frozen   bool
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[diagram.NodeType]Handler)}
}

// Register wires a handler for its node type.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("handler registry is frozen")
	}
	nt := h.NodeType()
	if _, exists := r.handlers[nt]; exists {
		return fmt.Errorf("handler for node type %q already registered", nt)
	}
	r.handlers[nt] = h
	return nil
}

// Get returns the handler for a node type.
func (r *Registry) Get(nt diagram.NodeType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[nt]
	return h, ok
}

// Freeze prevents further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}
