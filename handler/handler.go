//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package handler provides the built-in node handlers. Each handler
// implements exec.Handler for one node type; RegisterBuiltins wires the
// full set into a registry.
package handler

import (
	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
)

// RegisterBuiltins registers every built-in handler on the registry.
func RegisterBuiltins(r *exec.Registry) error {
	builtins := []exec.Handler{
		&startHandler{},
		&endpointHandler{},
		&personJobHandler{},
		&codeJobHandler{},
		&apiJobHandler{},
		&conditionHandler{},
		&dbHandler{},
		&templateJobHandler{},
		&hookHandler{},
		&subDiagramHandler{},
		&userResponseHandler{},
	}
	for _, h := range builtins {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// configAs asserts the node's typed config, guarding against a handler
// wired to the wrong node type.
func configAs[T diagram.NodeConfig](node *diagram.ExecutableNode) (T, error) {
	cfg, ok := node.Config.(T)
	if !ok {
		var zero T
		return zero, exec.NewError(exec.CodeInternal,
			"node %s: config is %T, want %T", node.ID, node.Config, zero)
	}
	return cfg, nil
}

// inputValues flattens the input envelopes into their bodies for expression
// evaluation and templating.
func inputValues(inputs map[string]*envelope.Envelope) map[string]any {
	out := make(map[string]any, len(inputs))
	for port, env := range inputs {
		out[port] = env.Body()
	}
	return out
}

// inputTexts flattens the input envelopes into display strings.
func inputTexts(inputs map[string]*envelope.Envelope) map[string]string {
	out := make(map[string]string, len(inputs))
	for port, env := range inputs {
		out[port] = env.AsText()
	}
	return out
}

// defaultOutput wraps an envelope as the node's sole default-port output.
func defaultOutput(env *envelope.Envelope) map[string]*envelope.Envelope {
	return map[string]*envelope.Envelope{string(diagram.LabelDefault): env}
}

// firstInput returns the default-port input, falling back to any single
// input when no default port resolved.
func firstInput(inputs map[string]*envelope.Envelope) *envelope.Envelope {
	if env, ok := inputs[string(diagram.LabelDefault)]; ok {
		return env
	}
	if len(inputs) == 1 {
		for _, env := range inputs {
			return env
		}
	}
	return nil
}

// requirePort fails with a typed error when a service port is absent.
func requirePort(present bool, name string) error {
	if present {
		return nil
	}
	return exec.NewError(exec.CodeExternalService, "service port %q is not configured", name)
}
