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

// startHandler seeds the execution. Its output merges the execution's seed
// variables with the node's static custom data; custom data wins on key
// collisions so a diagram can pin values regardless of the caller.
type startHandler struct{}

func (h *startHandler) NodeType() diagram.NodeType { return diagram.NodeTypeStart }

func (h *startHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.StartConfig](node)
	if err != nil {
		return nil, err
	}

	seed := nc.Variables.Snapshot()
	for k, v := range cfg.CustomData {
		seed[k] = v
		nc.Variables.Set(k, v)
	}
	return defaultOutput(envelope.Object(seed,
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID))), nil
}
