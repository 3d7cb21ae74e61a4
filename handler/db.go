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
	"encoding/json"
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
)

// dbHandler reads and writes files through the filesystem port. Read paths
// may be doublestar globs; a multi-file read returns a path-keyed object.
type dbHandler struct{}

func (h *dbHandler) NodeType() diagram.NodeType { return diagram.NodeTypeDB }

func (h *dbHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.DBConfig](node)
	if err != nil {
		return nil, err
	}
	if err := requirePort(nc.Services != nil && nc.Services.Files != nil, "files"); err != nil {
		return nil, err
	}

	switch cfg.Operation {
	case diagram.DBOperationRead:
		return h.read(ctx, node, cfg, nc)
	case diagram.DBOperationWrite, diagram.DBOperationAppend:
		in := firstInput(inputs)
		if in == nil {
			return nil, exec.NewError(exec.CodeInputResolution,
				"db %s needs an input to persist", cfg.Operation)
		}
		data := []byte(in.AsText())
		var opErr error
		if cfg.Operation == diagram.DBOperationWrite {
			opErr = nc.Services.Files.Write(ctx, cfg.Path, data)
		} else {
			opErr = nc.Services.Files.Append(ctx, cfg.Path, data)
		}
		if opErr != nil {
			return nil, exec.NewError(exec.CodeExternalService,
				"%s %s: %v", cfg.Operation, cfg.Path, opErr)
		}
		return defaultOutput(in), nil
	default:
		return nil, exec.NewError(exec.CodeValidation, "unsupported db operation %q", cfg.Operation)
	}
}

func (h *dbHandler) read(ctx context.Context, node *diagram.ExecutableNode,
	cfg *diagram.DBConfig, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	paths := []string{cfg.Path}
	if strings.ContainsAny(cfg.Path, "*?[{") {
		matches, err := nc.Services.Files.Glob(ctx, cfg.Path)
		if err != nil {
			return nil, exec.NewError(exec.CodeExternalService, "glob %s: %v", cfg.Path, err)
		}
		paths = matches
	}

	opts := []envelope.Option{
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID),
	}
	if len(paths) == 1 && paths[0] == cfg.Path {
		data, err := nc.Services.Files.Read(ctx, cfg.Path)
		if err != nil {
			return nil, exec.NewError(exec.CodeExternalService, "read %s: %v", cfg.Path, err)
		}
		return defaultOutput(h.decode(data, cfg.Format, opts)), nil
	}

	files := make(map[string]any, len(paths))
	for _, path := range paths {
		data, err := nc.Services.Files.Read(ctx, path)
		if err != nil {
			return nil, exec.NewError(exec.CodeExternalService, "read %s: %v", path, err)
		}
		files[path] = h.decode(data, cfg.Format, nil).Body()
	}
	return defaultOutput(envelope.Object(files, opts...)), nil
}

// decode interprets file contents according to the configured format.
func (h *dbHandler) decode(data []byte, format string, opts []envelope.Option) *envelope.Envelope {
	if format == "json" {
		var v any
		if err := json.Unmarshal(data, &v); err == nil {
			return envelope.Object(v, opts...)
		}
	}
	return envelope.Text(string(data), opts...)
}
