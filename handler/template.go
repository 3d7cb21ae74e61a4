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

// templateJobHandler renders a template against the execution variables and
// node inputs, optionally writing the result to a file.
type templateJobHandler struct{}

func (h *templateJobHandler) NodeType() diagram.NodeType { return diagram.NodeTypeTemplateJob }

func (h *templateJobHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.TemplateJobConfig](node)
	if err != nil {
		return nil, err
	}
	if err := requirePort(nc.Services != nil && nc.Services.Templates != nil, "templates"); err != nil {
		return nil, err
	}

	vars := nc.Variables.Snapshot()
	for port, value := range inputValues(inputs) {
		vars[port] = value
	}
	rendered, err := nc.Services.Templates.Render(ctx, cfg.Template, vars)
	if err != nil {
		return nil, exec.NewError(exec.CodeHandlerFailed, "render: %v", err)
	}

	if cfg.OutputPath != "" {
		if err := requirePort(nc.Services.Files != nil, "files"); err != nil {
			return nil, err
		}
		if err := nc.Services.Files.Write(ctx, cfg.OutputPath, []byte(rendered)); err != nil {
			return nil, exec.NewError(exec.CodeExternalService,
				"write %s: %v", cfg.OutputPath, err)
		}
	}
	return defaultOutput(envelope.Text(rendered,
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID))), nil
}
