//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package localfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) *FS {
	t.Helper()
	fs, err := New(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestWriteReadRoundTrip(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Write(ctx, "nested/dir/file.txt", []byte("content")))
	data, err := fs.Read(ctx, "nested/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestAppendCreatesAndExtends(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Append(ctx, "log.txt", []byte("one")))
	require.NoError(t, fs.Append(ctx, "log.txt", []byte("-two")))
	data, err := fs.Read(ctx, "log.txt")
	require.NoError(t, err)
	assert.Equal(t, "one-two", string(data))
}

func TestEscapeIsRejected(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()

	for _, path := range []string{"../outside.txt", "a/../../outside.txt"} {
		_, err := fs.Read(ctx, path)
		assert.Error(t, err, "read %s", path)
		assert.Error(t, fs.Write(ctx, path, []byte("x")), "write %s", path)
		assert.Error(t, fs.Append(ctx, path, []byte("x")), "append %s", path)
	}

	// Dot segments that stay inside the root are fine.
	require.NoError(t, fs.Write(ctx, "a/../inside.txt", []byte("ok")))
}

func TestGlobDoublestar(t *testing.T) {
	fs := newFS(t)
	ctx := context.Background()
	for _, path := range []string{"a/x.json", "a/b/y.json", "a/b/z.txt"} {
		require.NoError(t, fs.Write(ctx, path, []byte("{}")))
	}

	matches, err := fs.Glob(ctx, "a/**/*.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a/x.json", "a/b/y.json"}, matches)

	matches, err = fs.Glob(ctx, "*.missing")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReadMissingFile(t *testing.T) {
	fs := newFS(t)
	_, err := fs.Read(context.Background(), "absent.txt")
	require.Error(t, err)
}
