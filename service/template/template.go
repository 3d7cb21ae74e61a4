//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package template implements the template rendering port with Go
// text/template syntax. Variables are addressed as {{.name}}.
package template

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Renderer implements service.TemplateRenderer.
type Renderer struct {
	funcs template.FuncMap
}

// Option configures the renderer.
type Option func(*Renderer)

// WithFuncs adds template functions available to every render.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for name, fn := range funcs {
			r.funcs[name] = fn
		}
	}
}

// New creates a renderer with the default function set.
func New(opts ...Option) *Renderer {
	r := &Renderer{funcs: template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
		"join":  strings.Join,
	}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements service.TemplateRenderer.
func (r *Renderer) Render(ctx context.Context, text string, vars map[string]any) (string, error) {
	tmpl, err := template.New("node").Funcs(r.funcs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}
