//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package localfs implements the filesystem port over a local directory.
// All paths are resolved inside the configured root; escapes are rejected.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FS is a root-jailed local filesystem.
type FS struct {
	root string
}

// New creates a filesystem rooted at dir.
func New(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", dir, err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// resolve joins the path onto the root and rejects traversal outside it.
func (f *FS) resolve(path string) (string, error) {
	full := filepath.Join(f.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(f.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the filesystem root", path)
	}
	return full, nil
}

// Read implements service.FileSystem.
func (f *FS) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Write implements service.FileSystem. Parent directories are created.
func (f *FS) Write(ctx context.Context, path string, data []byte) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// Append implements service.FileSystem.
func (f *FS) Append(ctx context.Context, path string, data []byte) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(data)
	return err
}

// Glob implements service.FileSystem using doublestar patterns relative to
// the root. Matches come back as slash-separated relative paths.
func (f *FS) Glob(ctx context.Context, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(f.root), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}
