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
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	dipeoexec "trpc.group/trpc-go/dipeo/exec"
)

/// hookHandler triggers a side effect: a shell command or a webhook POST.
// The input passes through unchanged so hooks can sit inline on a path.
type hookHandler struct {
	client *http.Client
}

func (h *hookHandler) NodeType() diagram.NodeType { return diagram.NodeTypeHook }

func (h *hookHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *dipeoexec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.HookConfig](node)
	if err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case diagram.HookShell:
		if err := h.runShell(ctx, cfg, inputs); err != nil {
			return nil, err
		}
	case diagram.HookWebhook:
		if err := h.postWebhook(ctx, cfg, inputs, nc); err != nil {
			return nil, err
		}
	default:
		return nil, dipeoexec.NewError(dipeoexec.CodeValidation, "unsupported hook kind %q", cfg.Kind)
	}

	out := firstInput(inputs)
	if out == nil {
		out = envelope.Empty(envelope.WithProducer(node.ID))
	}
	return defaultOutput(out), nil
}

func (h *hookHandler) runShell(ctx context.Context, cfg *diagram.HookConfig,
	inputs map[string]*envelope.Envelope) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", cfg.Command)
	cmd.Env = os.Environ()
	for port, text := range inputTexts(inputs) {
		cmd.Env = append(cmd.Env, "DIPEO_IN_"+strings.ToUpper(port)+"="+text)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return dipeoexec.NewError(dipeoexec.CodeHandlerFailed,
			"hook command: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (h *hookHandler) postWebhook(ctx context.Context, cfg *diagram.HookConfig,
	inputs map[string]*envelope.Envelope, nc *dipeoexec.NodeContext) error {
	payload, err := json.Marshal(map[string]any{
		"execution_id": string(nc.ExecutionID),
		"inputs":       inputValues(inputs),
	})
	if err != nil {
		return dipeoexec.NewError(dipeoexec.CodeHandlerFailed, "encode webhook payload: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return dipeoexec.NewError(dipeoexec.CodeValidation, "build webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return dipeoexec.Retryable(dipeoexec.NewError(dipeoexec.CodeExternalService,
			"webhook %s: %v", cfg.URL, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return dipeoexec.NewError(dipeoexec.CodeExternalService,
			"webhook %s: status %d", cfg.URL, resp.StatusCode)
	}
	return nil
}
