//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package template

import (
	"context"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVariables(t *testing.T) {
	r := New()
	out, err := r.Render(context.Background(), "Hello, {{.name}}!",
		map[string]any{"name": "dipeo"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, dipeo!", out)
}

func TestRenderBuiltinFuncs(t *testing.T) {
	r := New()
	out, err := r.Render(context.Background(),
		`{{upper .name}} {{trim .padded}} {{join .items ","}}`,
		map[string]any{
			"name":   "dipeo",
			"padded": "  x  ",
			"items":  []string{"a", "b"},
		})
	require.NoError(t, err)
	assert.Equal(t, "DIPEO x a,b", out)
}

func TestRenderMissingKeyDoesNotError(t *testing.T) {
	r := New()
	out, err := r.Render(context.Background(), "[{{.absent}}]", map[string]any{})
	require.NoError(t, err, "missing keys render a zero value, not an error")
	assert.Equal(t, "[<no value>]", out)
}

func TestRenderCustomFuncs(t *testing.T) {
	r := New(WithFuncs(template.FuncMap{
		"double": func(s string) string { return s + s },
	}))
	out, err := r.Render(context.Background(), `{{double "ab"}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "abab", out)
}

func TestRenderParseError(t *testing.T) {
	r := New()
	_, err := r.Render(context.Background(), "{{.broken", nil)
	require.Error(t, err)
}
