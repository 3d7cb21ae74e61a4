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

// subDiagramHandler runs a nested diagram to completion through the
// sub-diagram port and forwards its result.
type subDiagramHandler struct{}

func (h *subDiagramHandler) NodeType() diagram.NodeType { return diagram.NodeTypeSubDiagram }

func (h *subDiagramHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.SubDiagramConfig](node)
	if err != nil {
		return nil, err
	}
	if err := requirePort(nc.Services != nil && nc.Services.Subdiagrams != nil, "subdiagrams"); err != nil {
		return nil, err
	}

	result, err := nc.Services.Subdiagrams.Run(ctx, cfg.Diagram, inputs)
	if err != nil {
		return nil, exec.NewError(exec.CodeExternalService,
			"sub-diagram %s: %v", cfg.Diagram, err)
	}
	if result == nil {
		result = envelope.Empty(envelope.WithProducer(node.ID))
	}
	return defaultOutput(result), nil
}
