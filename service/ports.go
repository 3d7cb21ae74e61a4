//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package service defines the narrow port interfaces the core depends on.
// Concrete adapters live in subpackages and are wired by the composition
// root; the engine and handlers only ever see these interfaces.
package service

import (
	"context"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/event"
)

// Message is one turn of a person's conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest asks a provider for the next assistant turn.
type ChatRequest struct {
	Person   diagram.DomainPerson
	Messages []Message
	Tools    []string
}

// ChatResponse is the provider's answer.
type ChatResponse struct {
	Text string
	// ToolResults carries structured tool-call results, when any ran.
	ToolResults []map[string]any
}

// LLM is the chat port backing person nodes.
type LLM interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// FileSystem is the file port backing db and endpoint nodes.
type FileSystem interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Append(ctx context.Context, path string, data []byte) error
	// Glob expands a doublestar pattern into matching paths.
	Glob(ctx context.Context, pattern string) ([]string, error)
}

// APIKeyStore resolves API key IDs into secrets.
type APIKeyStore interface {
	Get(ctx context.Context, id diagram.APIKeyID) (string, error)
}

// TemplateRenderer renders a template against variables.
type TemplateRenderer interface {
	Render(ctx context.Context, template string, vars map[string]any) (string, error)
}

// MessageStore is the append-only event store. Reads are keyed by execution
// and a sequence number range; to == 0 means unbounded.
type MessageStore interface {
	Append(ctx context.Context, evt *event.Event) error
	Query(ctx context.Context, execID diagram.ExecutionID, from, to uint64) ([]*event.Event, error)
}

// SubdiagramExecutor runs a nested diagram to completion.
type SubdiagramExecutor interface {
	Run(ctx context.Context, id diagram.DiagramID, inputs map[string]*envelope.Envelope) (*envelope.Envelope, error)
}

// Interaction requests a response from a human participant.
// The event router implements this port.
type Interaction interface {
	Prompt(ctx context.Context, execID diagram.ExecutionID, nodeID diagram.NodeID, prompt string) (any, error)
}

// Set bundles the ports handed to node handlers. Nil fields are allowed;
// handlers fail with an external-service error when they need an absent
// port.
type Set struct {
	LLM         LLM
	Files       FileSystem
	APIKeys     APIKeyStore
	Templates   TemplateRenderer
	Messages    MessageStore
	Subdiagrams SubdiagramExecutor
	Interaction Interaction
}
