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

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
)

// endpointHandler terminates a branch. It passes its input through as the
// execution result and optionally persists it to a file.
type endpointHandler struct{}

func (h *endpointHandler) NodeType() diagram.NodeType { return diagram.NodeTypeEndpoint }

func (h *endpointHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.EndpointConfig](node)
	if err != nil {
		return nil, err
	}

	in := firstInput(inputs)
	if in == nil {
		in = envelope.Empty(envelope.WithProducer(node.ID))
	}

	if cfg.SaveToFile && cfg.FilePath != "" {
		if err := requirePort(nc.Services != nil && nc.Services.Files != nil, "files"); err != nil {
			return nil, err
		}
		if err := nc.Services.Files.Write(ctx, cfg.FilePath, []byte(in.AsText())); err != nil {
			return nil, exec.NewError(exec.CodeExternalService,
				"write %s: %v", cfg.FilePath, err)
		}
	}
	return defaultOutput(in), nil
}
