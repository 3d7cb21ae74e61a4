//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package openai adapts OpenAI-compatible chat completion services to the
// LLM port. Ollama and other compatible providers are reached by mapping
// their service name to a base URL.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/service"
)

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL maps a provider service name to a base URL.
func WithBaseURL(svc diagram.LLMService, url string) Option {
	return func(a *Adapter) { a.baseURLs[svc] = url }
}

// WithClientOptions appends raw client options applied to every request.
func WithClientOptions(opts ...openaiopt.RequestOption) Option {
	return func(a *Adapter) { a.clientOpts = append(a.clientOpts, opts...) }
}

// Adapter implements the service.LLM port over the OpenAI chat completion
// API.
type Adapter struct {
	keys       service.APIKeyStore
	baseURLs   map[diagram.LLMService]string
	clientOpts []openaiopt.RequestOption
}

// New creates an adapter resolving API keys through the given store.
func New(keys service.APIKeyStore, opts ...Option) *Adapter {
	a := &Adapter{
		keys:     keys,
		baseURLs: make(map[diagram.LLMService]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat implements service.LLM.
func (a *Adapter) Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	clientOpts := append([]openaiopt.RequestOption{}, a.clientOpts...)
	if req.Person.APIKeyID != "" && a.keys != nil {
		key, err := a.keys.Get(ctx, req.Person.APIKeyID)
		if err != nil {
			return nil, fmt.Errorf("resolve api key %s: %w", req.Person.APIKeyID, err)
		}
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(key))
	}
	if baseURL, ok := a.baseURLs[req.Person.Service]; ok {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(baseURL))
	}
	client := openai.NewClient(clientOpts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Person.Model),
		Messages: convertMessages(req.Messages),
	}
	if req.Person.Temperature != nil {
		params.Temperature = openai.Float(*req.Person.Temperature)
	}
	if req.Person.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.Person.MaxTokens))
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty choices")
	}
	choice := completion.Choices[0]

	resp := &service.ChatResponse{Text: choice.Message.Content}
	for _, call := range choice.Message.ToolCalls {
		result := map[string]any{
			"id":   call.ID,
			"name": call.Function.Name,
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err == nil {
			result["arguments"] = args
		} else {
			result["arguments"] = call.Function.Arguments
		}
		resp.ToolResults = append(resp.ToolResults, result)
	}
	return resp, nil
}

func convertMessages(msgs []service.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case service.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case service.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
