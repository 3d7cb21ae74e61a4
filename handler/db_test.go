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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/exec"
	"trpc.group/trpc-go/dipeo/service"
	"trpc.group/trpc-go/dipeo/service/localfs"
)

func dbNode(op diagram.DBOperation, path, format string) *diagram.ExecutableNode {
	return testNode("store", diagram.NodeTypeDB, &diagram.DBConfig{
		Operation: op, Path: path, Format: format,
	})
}

func dbServices(t *testing.T) *service.Set {
	t.Helper()
	fs, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	return &service.Set{Files: fs}
}

func TestDBWriteThenRead(t *testing.T) {
	services := dbServices(t)
	h := &dbHandler{}

	_, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationWrite, "notes/a.txt", ""),
		textIn("first"), testContext(services))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationRead, "notes/a.txt", ""),
		nil, testContext(services))
	require.NoError(t, err)
	assert.Equal(t, "first", out[string(diagram.LabelDefault)].Body())
}

func TestDBAppend(t *testing.T) {
	services := dbServices(t)
	h := &dbHandler{}

	for _, chunk := range []string{"one", "-two"} {
		_, err := h.Execute(context.Background(),
			dbNode(diagram.DBOperationAppend, "log.txt", ""),
			textIn(chunk), testContext(services))
		require.NoError(t, err)
	}

	out, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationRead, "log.txt", ""),
		nil, testContext(services))
	require.NoError(t, err)
	assert.Equal(t, "one-two", out[string(diagram.LabelDefault)].Body())
}

func TestDBReadJSONFormat(t *testing.T) {
	services := dbServices(t)
	h := &dbHandler{}

	_, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationWrite, "cfg.json", ""),
		textIn(`{"enabled": true}`), testContext(services))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationRead, "cfg.json", "json"),
		nil, testContext(services))
	require.NoError(t, err)
	body, ok := out[string(diagram.LabelDefault)].Body().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, body["enabled"])
}

func TestDBReadGlob(t *testing.T) {
	services := dbServices(t)
	h := &dbHandler{}

	for path, content := range map[string]string{
		"data/a.txt": "alpha",
		"data/b.txt": "beta",
	} {
		_, err := h.Execute(context.Background(),
			dbNode(diagram.DBOperationWrite, path, ""),
			textIn(content), testContext(services))
		require.NoError(t, err)
	}

	out, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationRead, "data/*.txt", ""),
		nil, testContext(services))
	require.NoError(t, err)

	files, ok := out[string(diagram.LabelDefault)].Body().(map[string]any)
	require.True(t, ok, "a glob read returns a path-keyed object")
	assert.Equal(t, "alpha", files["data/a.txt"])
	assert.Equal(t, "beta", files["data/b.txt"])
}

func TestDBWriteWithoutInput(t *testing.T) {
	h := &dbHandler{}
	_, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationWrite, "x.txt", ""),
		nil, testContext(dbServices(t)))
	require.Error(t, err)
	assert.Equal(t, exec.CodeInputResolution, exec.AsError(err).Code)
}

func TestDBWithoutFilesPort(t *testing.T) {
	h := &dbHandler{}
	_, err := h.Execute(context.Background(),
		dbNode(diagram.DBOperationRead, "x.txt", ""),
		nil, testContext(nil))
	require.Error(t, err)
	assert.Equal(t, exec.CodeExternalService, exec.AsError(err).Code)
}
