//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// NodeType represents the type of a node in the diagram.
type NodeType string

const (
	// NodeTypeStart represents an entry point of the diagram.
	NodeTypeStart NodeType = "start"
	// NodeTypeEndpoint represents a terminal node of the diagram.
	NodeTypeEndpoint NodeType = "endpoint"
	// NodeTypePersonJob represents an LLM prompt executed by a person.
	NodeTypePersonJob NodeType = "person_job"
	// NodeTypeCodeJob represents a code or shell job.
	NodeTypeCodeJob NodeType = "code_job"
	// NodeTypeAPIJob represents an HTTP API call.
	NodeTypeAPIJob NodeType = "api_job"
	// NodeTypeCondition represents a conditional branch node.
	NodeTypeCondition NodeType = "condition"
	// NodeTypeDB represents a database or file read/write node.
	NodeTypeDB NodeType = "db"
	// NodeTypeTemplateJob represents a template rendering node.
	NodeTypeTemplateJob NodeType = "template_job"
	// NodeTypeHook represents a shell or webhook side effect node.
	NodeTypeHook NodeType = "hook"
	// NodeTypeSubDiagram represents execution of a nested diagram.
	NodeTypeSubDiagram NodeType = "sub_diagram"
	// NodeTypeUserResponse represents an interactive user prompt node.
	NodeTypeUserResponse NodeType = "user_response"
)

// String returns the string representation of the node type.
func (nt NodeType) String() string { return string(nt) }

// Valid reports whether the node type is one of the known types.
func (nt NodeType) Valid() bool {
	switch nt {
	case NodeTypeStart, NodeTypeEndpoint, NodeTypePersonJob, NodeTypeCodeJob,
		NodeTypeAPIJob, NodeTypeCondition, NodeTypeDB, NodeTypeTemplateJob,
		NodeTypeHook, NodeTypeSubDiagram, NodeTypeUserResponse:
		return true
	}
	return false
}

// Position is the visual position of a node or handle in the editor.
// The runtime carries it through untouched.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DomainNode is the authoring-time representation of a node. Data holds the
// node's opaque configuration dictionary; the compiler's node factory phase
// converts it into a typed config.
type DomainNode struct {
	ID       NodeID         `json:"id" yaml:"id"`
	Type     NodeType       `json:"type" yaml:"type"`
	Position Position       `json:"position" yaml:"position"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}
