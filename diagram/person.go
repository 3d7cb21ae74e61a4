//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// LLMService names the provider backing a person.
type LLMService string

const (
	// LLMServiceOpenAI is the OpenAI chat completion service.
	LLMServiceOpenAI LLMService = "openai"
	// LLMServiceAnthropic is the Anthropic messages service.
	LLMServiceAnthropic LLMService = "anthropic"
	// LLMServiceOllama is a local Ollama service.
	LLMServiceOllama LLMService = "ollama"
)

/// DomainPerson is the configuration of an LLM participant: which provider
// and model it talks to, the API key used, and its standing instructions.
type DomainPerson struct {
	ID           PersonID   `json:"id" yaml:"id"`
	Label        string     `json:"label,omitempty" yaml:"label,omitempty"`
	Service      LLMService `json:"service" yaml:"service"`
	Model        string     `json:"model" yaml:"model"`
	APIKeyID     APIKeyID   `json:"api_key_id,omitempty" yaml:"api_key_id,omitempty"`
	SystemPrompt string     `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Temperature  *float64   `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens    *int       `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}
