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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalExpr(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		vars   map[string]any
		inputs map[string]any
		want   any
	}{
		{
			name: "arithmetic",
			expr: "1 + 2",
			want: int64(3),
		},
		{
			name: "vars map access",
			expr: `vars["count"] > 2`,
			vars: map[string]any{"count": 5},
			want: true,
		},
		{
			name:   "inputs map access",
			expr:   `inputs["default"]`,
			inputs: map[string]any{"default": "payload"},
			want:   "payload",
		},
		{
			name: "top level variable",
			expr: `count * 2`,
			vars: map[string]any{"count": 3},
			want: int64(6),
		},
		{
			name:   "inputs shadow vars at top level",
			expr:   `value`,
			vars:   map[string]any{"value": "from-vars"},
			inputs: map[string]any{"value": "from-inputs"},
			want:   "from-inputs",
		},
		{
			name:   "string functions",
			expr:   `name.startsWith("di")`,
			inputs: map[string]any{"name": "dipeo"},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalExpr(tt.expr, tt.vars, tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExprErrors(t *testing.T) {
	_, err := evalExpr("1 +", nil, nil)
	require.Error(t, err, "syntax errors surface")

	_, err = evalExpr("unknown_name", nil, nil)
	require.Error(t, err, "undeclared identifiers surface")
}

func TestEvalExprSkipsInvalidIdentifiers(t *testing.T) {
	// Names that are not CEL identifiers stay reachable through the maps.
	got, err := evalExpr(`vars["not-an-ident"]`, map[string]any{"not-an-ident": 7}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestValidIdent(t *testing.T) {
	assert.True(t, validIdent("count"))
	assert.True(t, validIdent("_private"))
	assert.True(t, validIdent("a1"))
	assert.False(t, validIdent(""))
	assert.False(t, validIdent("1a"))
	assert.False(t, validIdent("not-an-ident"))
	assert.False(t, validIdent("has space"))
}
