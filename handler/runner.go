//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package handler

import (
	"context"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/event"
	"trpc.group/trpc-go/dipeo/exec"
	"trpc.group/trpc-go/dipeo/service"
)

// Runner executes registered compiled diagrams on demand. It implements
// service.SubdiagramExecutor, so a sub-diagram node can run any diagram
// added to the runner, sharing the parent's bus and service ports.
type Runner struct {
	mu       sync.RWMutex
	diagrams map[diagram.DiagramID]*diagram.ExecutableDiagram

	handlers *exec.Registry
	bus      *event.Bus
	services *service.Set
}

// NewRunner creates a runner over the shared handler registry, bus and
// service ports.
func NewRunner(handlers *exec.Registry, bus *event.Bus, services *service.Set) *Runner {
	return &Runner{
		diagrams: make(map[diagram.DiagramID]*diagram.ExecutableDiagram),
		handlers: handlers,
		bus:      bus,
		services: services,
	}
}

// Add registers a compiled diagram under its metadata ID.
func (r *Runner) Add(d *diagram.ExecutableDiagram) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagrams[d.Metadata.ID] = d
}

// Run implements service.SubdiagramExecutor. Input envelopes seed the child
// execution's variables; the result is the first endpoint output.
func (r *Runner) Run(ctx context.Context, id diagram.DiagramID,
	inputs map[string]*envelope.Envelope) (*envelope.Envelope, error) {
	r.mu.RLock()
	d, ok := r.diagrams[id]
	r.mu.RUnlock()
	if !ok {
		return nil, exec.NewError(exec.CodeValidation, "unknown diagram %q", id)
	}

	variables := make(map[string]any, len(inputs))
	for port, env := range inputs {
		variables[port] = env.Body()
	}

	engine, err := exec.NewEngine(d, r.handlers, r.bus, r.services)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(ctx, variables)
	if err != nil {
		return nil, err
	}
	if result.Status != exec.StatusExecCompleted {
		return nil, result.Err
	}
	for _, node := range d.Order {
		if env, ok := result.Outputs[node]; ok {
			return env, nil
		}
	}
	return envelope.Empty(), nil
}
