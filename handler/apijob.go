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
	"io"
	"net/http"
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
)

// apiJobHandler calls an HTTP endpoint. Server-side failures (5xx and
// transport errors) are retryable; client-side failures are not.
type apiJobHandler struct {
	// client is swappable for tests; nil means http.DefaultClient.
	client *http.Client
}

func (h *apiJobHandler) NodeType() diagram.NodeType { return diagram.NodeTypeAPIJob }

func (h *apiJobHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.APIJobConfig](node)
	if err != nil {
		return nil, err
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	body, contentType, err := h.requestBody(cfg, inputs)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return nil, exec.NewError(exec.CodeValidation, "build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := h.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exec.Retryable(exec.NewError(exec.CodeExternalService,
			"%s %s: %v", method, cfg.URL, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exec.Retryable(exec.NewError(exec.CodeExternalService,
			"read response: %v", err))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, exec.Retryable(exec.NewError(exec.CodeExternalService,
			"%s %s: status %d", method, cfg.URL, resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, exec.NewError(exec.CodeExternalService,
			"%s %s: status %d", method, cfg.URL, resp.StatusCode)
	}

	return defaultOutput(h.responseEnvelope(node, resp, data, nc)), nil
}

// requestBody resolves the request payload: an explicit config body wins;
// otherwise the default input is sent for write methods.
func (h *apiJobHandler) requestBody(cfg *diagram.APIJobConfig,
	inputs map[string]*envelope.Envelope) (io.Reader, string, error) {
	if cfg.Body != nil {
		raw, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, "", exec.NewError(exec.CodeValidation, "encode body: %v", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
	method := strings.ToUpper(cfg.Method)
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return nil, "", nil
	}
	in := firstInput(inputs)
	if in == nil {
		return nil, "", nil
	}
	if _, isString := in.Body().(string); isString {
		return strings.NewReader(in.AsText()), "text/plain", nil
	}
	raw, err := json.Marshal(in.Body())
	if err != nil {
		return nil, "", exec.NewError(exec.CodeValidation, "encode input body: %v", err)
	}
	return bytes.NewReader(raw), "application/json", nil
}

// responseEnvelope decodes a JSON response into an object envelope and
// falls back to raw text.
func (h *apiJobHandler) responseEnvelope(node *diagram.ExecutableNode,
	resp *http.Response, data []byte, nc *exec.NodeContext) *envelope.Envelope {
	opts := []envelope.Option{
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID),
		envelope.WithMeta("status_code", resp.StatusCode),
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err == nil {
			return envelope.Object(decoded, opts...)
		}
	}
	return envelope.Text(string(data), opts...)
}
