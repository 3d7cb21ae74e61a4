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
	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
)

// Strategy is the node-type-specific policy that decides which inbound
// edges participate in a firing and how values landing on the same port
// merge.
type Strategy interface {
	// ShouldProcess reports whether the edge is processed in the firing
	// with the given execution count (0 for the first firing).
	ShouldProcess(edge *diagram.ExecutableEdge, execCount int) bool
	// Merge combines a newly arrived envelope with one already resolved
	// for the same port.
	Merge(port string, existing, incoming *envelope.Envelope) *envelope.Envelope
	// DefaultPort is the output key used when a source omits an explicit
	// output name.
	DefaultPort() string
}

// StrategyFor selects the strategy for a node type.
func StrategyFor(nt diagram.NodeType) Strategy {
	if nt == diagram.NodeTypePersonJob {
		return personJobStrategy{}
	}
	return defaultStrategy{}
}

// defaultStrategy processes every edge and merges last-wins.
type defaultStrategy struct{}

func (defaultStrategy) ShouldProcess(*diagram.ExecutableEdge, int) bool { return true }

func (defaultStrategy) Merge(_ string, _, incoming *envelope.Envelope) *envelope.Envelope {
	return incoming
}

func (defaultStrategy) DefaultPort() string { return string(diagram.LabelDefault) }

// personJobStrategy gates first-only inputs: the first firing processes only
// first-input edges, later firings ignore them. Conversation-state edges are
// always processed, and their histories concatenate instead of replacing.
type personJobStrategy struct{}

func (personJobStrategy) ShouldProcess(edge *diagram.ExecutableEdge, execCount int) bool {
	if edge.Hints.IsConversationState {
		return true
	}
	if execCount == 0 {
		return edge.Hints.IsFirstOnly
	}
	return !edge.Hints.IsFirstOnly
}

func (personJobStrategy) Merge(_ string, existing, incoming *envelope.Envelope) *envelope.Envelope {
	if existing == nil {
		return incoming
	}
	if incoming.ContentType() == diagram.ContentTypeConversationState {
		prev, okA := existing.Body().([]any)
		next, okB := incoming.Body().([]any)
		if okA && okB {
			merged := make([]any, 0, len(prev)+len(next))
			merged = append(merged, prev...)
			merged = append(merged, next...)
			return incoming.WithBody(merged)
		}
	}
	return incoming
}

func (personJobStrategy) DefaultPort() string { return string(diagram.LabelDefault) }
