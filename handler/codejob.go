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
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	dipeoexec "trpc.group/trpc-go/dipeo/exec"
)

// codeJobHandler evaluates a CEL expression or runs a shell command against
// the node inputs.
type codeJobHandler struct{}

func (h *codeJobHandler) NodeType() diagram.NodeType { return diagram.NodeTypeCodeJob }

func (h *codeJobHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *dipeoexec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.CodeJobConfig](node)
	if err != nil {
		return nil, err
	}
	switch cfg.Language {
	case diagram.CodeLanguageExpr:
		return h.runExpr(node, cfg, inputs, nc)
	case diagram.CodeLanguageShell:
		return h.runShell(ctx, node, cfg, inputs, nc)
	default:
		return nil, dipeoexec.NewError(dipeoexec.CodeValidation,
			"unsupported code language %q", cfg.Language)
	}
}

func (h *codeJobHandler) runExpr(node *diagram.ExecutableNode, cfg *diagram.CodeJobConfig,
	inputs map[string]*envelope.Envelope, nc *dipeoexec.NodeContext) (map[string]*envelope.Envelope, error) {
	value, err := evalExpr(cfg.Code, nc.Variables.Snapshot(), inputValues(inputs))
	if err != nil {
		return nil, dipeoexec.NewError(dipeoexec.CodeHandlerFailed, "expression: %v", err)
	}
	return defaultOutput(envelope.New(value,
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID))), nil
}

// runShell executes the command under sh -c. Inputs become DIPEO_IN_<PORT>
// environment variables; the default input is also piped to stdin.
func (h *codeJobHandler) runShell(ctx context.Context, node *diagram.ExecutableNode,
	cfg *diagram.CodeJobConfig, inputs map[string]*envelope.Envelope,
	nc *dipeoexec.NodeContext) (map[string]*envelope.Envelope, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", cfg.Code)
	cmd.Env = os.Environ()
	for port, text := range inputTexts(inputs) {
		cmd.Env = append(cmd.Env, "DIPEO_IN_"+strings.ToUpper(port)+"="+text)
	}
	if in := firstInput(inputs); in != nil {
		cmd.Stdin = strings.NewReader(in.AsText())
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, dipeoexec.NewError(dipeoexec.CodeHandlerFailed,
			"shell: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return defaultOutput(envelope.Text(strings.TrimRight(stdout.String(), "\n"),
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID))), nil
}
