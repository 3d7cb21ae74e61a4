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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/exec"
)

func TestCodeJobExpression(t *testing.T) {
	h := &codeJobHandler{}
	n := testNode("calc", diagram.NodeTypeCodeJob, &diagram.CodeJobConfig{
		Language: diagram.CodeLanguageExpr,
		Code:     `size(inputs) + 1`,
	})

	out, err := h.Execute(context.Background(), n, textIn("x"), testContext(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), out[string(diagram.LabelDefault)].Body())
}

func TestCodeJobExpressionError(t *testing.T) {
	h := &codeJobHandler{}
	n := testNode("calc", diagram.NodeTypeCodeJob, &diagram.CodeJobConfig{
		Language: diagram.CodeLanguageExpr,
		Code:     `broken(`,
	})

	_, err := h.Execute(context.Background(), n, nil, testContext(nil))
	require.Error(t, err)
	assert.Equal(t, exec.CodeHandlerFailed, exec.AsError(err).Code)
}

func TestCodeJobShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell jobs need sh")
	}
	h := &codeJobHandler{}
	n := testNode("shell", diagram.NodeTypeCodeJob, &diagram.CodeJobConfig{
		Language: diagram.CodeLanguageShell,
		Code:     `printf 'in=%s env=%s' "$(cat)" "$DIPEO_IN_DEFAULT"`,
	})

	out, err := h.Execute(context.Background(), n, textIn("hello"), testContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "in=hello env=hello", out[string(diagram.LabelDefault)].Body(),
		"stdin and the port environment variable both carry the input")
}

func TestCodeJobShellFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell jobs need sh")
	}
	h := &codeJobHandler{}
	n := testNode("shell", diagram.NodeTypeCodeJob, &diagram.CodeJobConfig{
		Language: diagram.CodeLanguageShell,
		Code:     `echo oops >&2; exit 3`,
	})

	_, err := h.Execute(context.Background(), n, nil, testContext(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops", "stderr is carried in the error")
}

func TestCodeJobUnsupportedLanguage(t *testing.T) {
	h := &codeJobHandler{}
	n := testNode("calc", diagram.NodeTypeCodeJob, &diagram.CodeJobConfig{
		Language: "python",
		Code:     "print(1)",
	})

	_, err := h.Execute(context.Background(), n, nil, testContext(nil))
	require.Error(t, err)
	assert.Equal(t, exec.CodeValidation, exec.AsError(err).Code)
}
