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
	"fmt"

	"github.com/google/cel-go/cel"
)

// evalExpr evaluates a CEL expression. The activation exposes the execution
// variables and node inputs both as the maps "vars" and "inputs" and as
// top-level identifiers, with inputs shadowing variables on collision.
func evalExpr(expr string, vars, inputs map[string]any) (any, error) {
	activation := map[string]any{
		"vars":   vars,
		"inputs": inputs,
	}
	decls := []cel.EnvOption{
		cel.Variable("vars", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("inputs", cel.MapType(cel.StringType, cel.DynType)),
	}
	for name, value := range vars {
		if !validIdent(name) || name == "vars" || name == "inputs" {
			continue
		}
		decls = append(decls, cel.Variable(name, cel.DynType))
		activation[name] = value
	}
	for name, value := range inputs {
		if !validIdent(name) || name == "vars" || name == "inputs" {
			continue
		}
		if _, declared := activation[name]; !declared {
			decls = append(decls, cel.Variable(name, cel.DynType))
		}
		activation[name] = value
	}

	env, err := cel.NewEnv(decls...)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("eval %q: %w", expr, err)
	}
	return out.Value(), nil
}

// validIdent reports whether the name is a usable CEL identifier.
func validIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
