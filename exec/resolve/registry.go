//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package resolve builds the typed input map a node handler consumes. It
// layers node-type strategies (which edges participate in a firing, how
// values merge) over a registry of pure transformation rules resolved at
// compile time.
package resolve

import (
	"fmt"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/log"
)

// TransformFunc is a pure function applied to a value along an edge.
type TransformFunc func(value any, params map[string]any) (any, error)

// Registry maps transformation kinds to their implementations. Custom rules
// may be registered until the registry is frozen; the engine freezes it
// before the first execution.
type Registry struct {
	mu     sync.RWMutex
	rules  map[diagram.TransformKind]TransformFunc
	frozen bool
}

// NewRegistry creates a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[diagram.TransformKind]TransformFunc)}
	r.rules[diagram.TransformVariableExtract] = variableExtract
	r.rules[diagram.TransformFormatString] = formatString
	r.rules[diagram.TransformContentTypeConvert] = contentTypeConvert
	r.rules[diagram.TransformExtractToolResults] = extractToolResults
	r.rules[diagram.TransformBranchOnCondition] = branchOnCondition
	return r
}

// Register adds a custom rule. Registering over an existing kind or after
// Freeze is an error.
func (r *Registry) Register(kind diagram.TransformKind, fn TransformFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("transform registry is frozen")
	}
	if _, exists := r.rules[kind]; exists {
		return fmt.Errorf("transform rule %q already registered", kind)
	}
	r.rules[kind] = fn
	return nil
}

// Freeze prevents further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Apply runs the edge's rules in order. A failing rule is logged and the
// value it received passes through unchanged; transformation is best effort.
func (r *Registry) Apply(rules []diagram.TransformRule, value any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rule := range rules {
		fn, ok := r.rules[rule.Kind]
		if !ok {
			log.Warnf("transform: unknown rule %q skipped", rule.Kind)
			continue
		}
		next, err := fn(value, rule.Params)
		if err != nil {
			log.Warnf("transform: rule %q failed, keeping original value: %v", rule.Kind, err)
			continue
		}
		value = next
	}
	return value
}
