//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package diagram defines the domain and executable diagram value types.
package diagram

import (
	"fmt"
	"strings"
)

// NodeID uniquely identifies a node within a diagram.
type NodeID string

// ArrowID uniquely identifies an arrow within a diagram.
type ArrowID string

// HandleID uniquely identifies a handle. It has the structural form
// "<NodeID>_<HandleLabel>_<Direction>" and can be parsed back into its
// parts with ParseHandleID.
type HandleID string

// PersonID uniquely identifies an LLM participant configuration.
type PersonID string

// APIKeyID identifies a stored API key secret.
type APIKeyID string

// ExecutionID uniquely identifies one execution of a diagram.
type ExecutionID string

// DiagramID uniquely identifies a diagram.
type DiagramID string

// String returns the string form of the node ID.
func (id NodeID) String() string { return string(id) }

// String returns the string form of the arrow ID.
func (id ArrowID) String() string { return string(id) }

// String returns the string form of the handle ID.
func (id HandleID) String() string { return string(id) }

// String returns the string form of the person ID.
func (id PersonID) String() string { return string(id) }

// String returns the string form of the execution ID.
func (id ExecutionID) String() string { return string(id) }

// NewHandleID builds the canonical handle ID for a node, label and direction.
func NewHandleID(node NodeID, label HandleLabel, direction HandleDirection) HandleID {
	return HandleID(fmt.Sprintf("%s_%s_%s", node, label, direction))
}

// ParseHandleID splits a handle ID into its node, label and direction parts.
// Node IDs may themselves contain underscores, so parsing proceeds from the
// right: the last segment is the direction and the second to last is the
// label.
func ParseHandleID(id HandleID) (NodeID, HandleLabel, HandleDirection, error) {
	s := string(id)
	i := strings.LastIndex(s, "_")
	if i <= 0 {
		return "", "", "", fmt.Errorf("malformed handle id %q", s)
	}
	direction := HandleDirection(s[i+1:])
	rest := s[:i]
	j := strings.LastIndex(rest, "_")
	if j <= 0 {
		return "", "", "", fmt.Errorf("malformed handle id %q", s)
	}
	label := HandleLabel(rest[j+1:])
	node := NodeID(rest[:j])
	if direction != DirectionInput && direction != DirectionOutput {
		return "", "", "", fmt.Errorf("handle id %q has unknown direction %q", s, direction)
	}
	return node, label, direction, nil
}
