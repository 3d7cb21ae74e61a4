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
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
	"trpc.group/trpc-go/dipeo/service"
)

// personJobHandler drives one LLM participant. The first firing uses the
// first-only prompt; later firings use the default prompt. Conversation
// history accumulates per person across firings.
type personJobHandler struct{}

func (h *personJobHandler) NodeType() diagram.NodeType { return diagram.NodeTypePersonJob }

func (h *personJobHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.PersonJobConfig](node)
	if err != nil {
		return nil, err
	}
	if err := requirePort(nc.Services != nil && nc.Services.LLM != nil, "llm"); err != nil {
		return nil, err
	}
	person, ok := nc.Diagram.Person(cfg.Person)
	if !ok {
		return nil, exec.NewError(exec.CodeValidation, "unknown person %q", cfg.Person)
	}

	prompt := cfg.DefaultPrompt
	if nc.ExecCount == 0 && cfg.FirstPrompt != "" {
		prompt = cfg.FirstPrompt
	}
	prompt = substitute(prompt, inputs, nc)

	messages := h.assembleMessages(person, prompt, inputs, nc)
	resp, err := nc.Services.LLM.Chat(ctx, service.ChatRequest{
		Person:   person,
		Messages: messages,
		Tools:    cfg.Tools,
	})
	if err != nil {
		return nil, exec.Retryable(exec.NewError(exec.CodeExternalService,
			"chat with %s: %v", person.ID, err))
	}

	nc.Conversations.Append(cfg.Person,
		service.Message{Role: service.RoleUser, Content: prompt},
		service.Message{Role: service.RoleAssistant, Content: resp.Text},
	)

	outputs := defaultOutput(envelope.Text(resp.Text,
		envelope.WithProducer(node.ID),
		envelope.WithTrace(nc.ExecutionID)))
	if len(resp.ToolResults) > 0 {
		outputs[string(diagram.LabelResults)] = envelope.Object(map[string]any{
			"tool_results": toolResultsAny(resp.ToolResults),
		}, envelope.WithProducer(node.ID))
	}
	return outputs, nil
}

// assembleMessages builds the provider message list: system prompt, stored
// history, any conversation-state inputs, then the current prompt.
func (h *personJobHandler) assembleMessages(person diagram.DomainPerson, prompt string,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) []service.Message {
	var messages []service.Message
	if person.SystemPrompt != "" {
		messages = append(messages, service.Message{Role: service.RoleSystem, Content: person.SystemPrompt})
	}
	messages = append(messages, nc.Conversations.History(person.ID)...)
	for _, env := range inputs {
		if env.ContentType() != diagram.ContentTypeConversationState {
			continue
		}
		if turns, ok := env.Body().([]any); ok {
			for _, turn := range turns {
				if m, ok := turn.(map[string]any); ok {
					role, _ := m["role"].(string)
					content, _ := m["content"].(string)
					if role != "" {
						messages = append(messages, service.Message{Role: role, Content: content})
					}
				}
			}
		}
	}
	return append(messages, service.Message{Role: service.RoleUser, Content: prompt})
}

// substitute expands {{port}} and {{variable}} placeholders in a prompt.
// Input ports shadow execution variables.
func substitute(prompt string, inputs map[string]*envelope.Envelope, nc *exec.NodeContext) string {
	if !strings.Contains(prompt, "{{") {
		return prompt
	}
	// Earlier pairs win inside Replacer, so ports go first to shadow
	// variables of the same name.
	var pairs []string
	for port, env := range inputs {
		pairs = append(pairs, "{{"+port+"}}", env.AsText())
	}
	for name, value := range nc.Variables.Snapshot() {
		pairs = append(pairs, "{{"+name+"}}", envelope.New(value).AsText())
	}
	return strings.NewReplacer(pairs...).Replace(prompt)
}

func toolResultsAny(results []map[string]any) []any {
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = r
	}
	return out
}
