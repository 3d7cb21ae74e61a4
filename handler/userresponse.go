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

// userResponseHandler pauses the branch until a human answers the prompt.
// The wait is bounded by the node timeout like every other handler.
type userResponseHandler struct{}

func (h *userResponseHandler) NodeType() diagram.NodeType { return diagram.NodeTypeUserResponse }

func (h *userResponseHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.UserResponseConfig](node)
	if err != nil {
		return nil, err
	}
	if err := requirePort(nc.Services != nil && nc.Services.Interaction != nil, "interaction"); err != nil {
		return nil, err
	}

	prompt := substitute(cfg.Prompt, inputs, nc)
	answer, err := nc.Services.Interaction.Prompt(ctx, nc.ExecutionID, node.ID, prompt)
	if err != nil {
		return nil, exec.NewError(exec.CodeExternalService, "prompt: %v", err)
	}
	return defaultOutput(envelope.New(answer,
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID))), nil
}
