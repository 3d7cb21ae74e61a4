//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package resolve

import (
	"fmt"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec/token"
)

// MissingInputError reports a required input port that did not resolve.
// The engine maps it to INPUT_RESOLUTION_FAILED and fails the node.
type MissingInputError struct {
	Node diagram.NodeID
	Port string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("node %s: required input %q did not resolve", e.Node, e.Port)
}

// Resolver turns the tokens pending on a node's inbound edges into the
// typed input map its handler consumes.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given rule registry.
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Registry exposes the rule registry, so callers can add custom rules
// before freezing it.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve produces the input map for one firing of the node. Ports with no
// value are absent from the map, never nil. The tokens argument is the
// manager's Peek result; consumption stays with the caller so that consume
// and resolve remain one atomic step from the scheduler's point of view.
func (r *Resolver) Resolve(
	d *diagram.ExecutableDiagram,
	node *diagram.ExecutableNode,
	tokens map[diagram.ArrowID]token.Token,
	execCount int,
) (map[string]*envelope.Envelope, error) {
	strategy := StrategyFor(node.Type)
	inputs := make(map[string]*envelope.Envelope)

	// Inbound edges arrive in canonical (sorted arrow) order, so merge
	// results are deterministic.
	for _, edge := range d.Incoming(node.ID) {
		tok, ok := tokens[edge.ID]
		if !ok {
			continue
		}
		if !strategy.ShouldProcess(edge, execCount) {
			continue
		}
		env := tok.Envelope
		value, ok := extractOutput(env.Body(), edge.SourceOutput)
		if !ok {
			// The source exposed neither the requested port nor a value.
			continue
		}
		value = r.registry.Apply(edge.Rules, value)

		port := inputPort(edge)
		next := env
		if !sameValue(value, env.Body()) {
			next = env.WithBody(value)
		}
		inputs[port] = strategy.Merge(port, inputs[port], next)
	}

	for _, required := range node.RequiredInputs {
		if _, ok := inputs[required]; !ok {
			return nil, &MissingInputError{Node: node.ID, Port: required}
		}
	}
	return inputs, nil
}

// inputPort names the key under which an edge's value lands. A labelled
// arrow binds its value to the label; otherwise the target input port is
// used.
func inputPort(edge *diagram.ExecutableEdge) string {
	if edge.Label != "" {
		return edge.Label
	}
	if edge.TargetInput != "" {
		return edge.TargetInput
	}
	return string(diagram.LabelDefault)
}

// extractOutput implements smart output extraction: a source that produced
// {value: X, outputs: {port: Y}} serves outputs.port when the edge asks for
// a named port, falling back to value; plain payloads pass through.
func extractOutput(body any, port string) (any, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return body, true
	}
	outputs, hasOutputs := obj["outputs"].(map[string]any)
	value, hasValue := obj["value"]
	if !hasOutputs && !hasValue {
		return body, true
	}
	if hasOutputs && port != "" && port != string(diagram.LabelDefault) {
		if v, ok := outputs[port]; ok {
			return v, true
		}
	}
	if hasValue {
		return value, true
	}
	if port == "" || port == string(diagram.LabelDefault) {
		return body, true
	}
	return nil, false
}

func sameValue(a, b any) bool {
	// Pointer-free fast path; values that round-tripped unchanged through
	// the rule chain are almost always identical strings or maps.
	if a == nil && b == nil {
		return true
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return sa == sb
	}
	return false
}
