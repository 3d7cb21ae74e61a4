//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package compile transforms a domain diagram into an executable diagram.
//
// Compilation runs a fixed pipeline of phases: structural validation,
// connection resolution, transformation-rule planning, node factory and
// indexing. It is a pure function of its input: no I/O, no clocks, no
// randomness, and node iteration is canonicalised so identical inputs
// produce structurally identical outputs.
package compile

import (
	"fmt"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Phase identifies one compiler phase, in pipeline order.
type Phase string

const (
	// PhaseStructural validates the invariants of the domain diagram.
	PhaseStructural Phase = "structural"
	// PhaseConnection resolves arrow endpoints into ports.
	PhaseConnection Phase = "connection_resolution"
	// PhaseTransformRules plans per-edge transformation rules.
	PhaseTransformRules Phase = "transformation_rules"
	// PhaseNodeFactory materialises typed node configurations.
	PhaseNodeFactory Phase = "node_factory"
	// PhaseIndexing builds adjacency indexes and topological ranks.
	PhaseIndexing Phase = "indexing"
)

var phaseOrder = []Phase{
	PhaseStructural,
	PhaseConnection,
	PhaseTransformRules,
	PhaseNodeFactory,
	PhaseIndexing,
}

// Compiler compiles domain diagrams. The zero options compile the full
// pipeline; WithStopAfter turns the compiler into a validator.
type Compiler struct {
	stopAfter Phase
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithStopAfter stops the pipeline after the given phase. Callers use this
// to run the compiler as a validator without paying for later phases.
func WithStopAfter(p Phase) Option {
	return func(c *Compiler) { c.stopAfter = p }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// compilation is the mutable state threaded through the phases.
type compilation struct {
	in     *diagram.DomainDiagram
	result *Result

	// plans maps arrows to their resolved endpoint information, filled by
	// the connection phase and consumed by later phases.
	plans map[diagram.ArrowID]*edgePlan

	nodes map[diagram.NodeID]*diagram.ExecutableNode
	edges []*diagram.ExecutableEdge
}

// edgePlan is the intermediate result of connection resolution for one arrow.
type edgePlan struct {
	arrow       diagram.DomainArrow
	sourceNode  diagram.NodeID
	targetNode  diagram.NodeID
	sourceLabel diagram.HandleLabel
	targetLabel diagram.HandleLabel
	contentType diagram.ContentType
	rules       []diagram.TransformRule
}

// Compile runs the phase pipeline over the domain diagram. The returned
// error reports misuse (nil input) only; validation findings are reported
// through the result's diagnostics.
func (c *Compiler) Compile(in *diagram.DomainDiagram) (*Result, error) {
	if in == nil {
		return nil, fmt.Errorf("domain diagram is nil")
	}
	comp := &compilation{
		in:     in,
		result: &Result{},
		plans:  make(map[diagram.ArrowID]*edgePlan),
		nodes:  make(map[diagram.NodeID]*diagram.ExecutableNode),
	}
	for _, phase := range phaseOrder {
		switch phase {
		case PhaseStructural:
			c.runStructural(comp)
		case PhaseConnection:
			c.runConnection(comp)
		case PhaseTransformRules:
			c.runTransformRules(comp)
		case PhaseNodeFactory:
			c.runNodeFactory(comp)
		case PhaseIndexing:
			c.runIndexing(comp)
		}
		comp.result.Completed = phase

		// A structural error marks the result invalid; later phases are
		// skipped since they would only report follow-on noise.
		if phase == PhaseStructural && !comp.result.IsValid() {
			return comp.result, nil
		}
		if c.stopAfter == phase {
			return comp.result, nil
		}
	}
	if comp.result.IsValid() {
		comp.result.Diagram = comp.assemble()
	}
	return comp.result, nil
}

// Validate runs the structural phase only.
func Validate(in *diagram.DomainDiagram) (*Result, error) {
	return New(WithStopAfter(PhaseStructural)).Compile(in)
}
