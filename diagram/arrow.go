//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// ContentType describes the payload semantics carried along an arrow.
type ContentType string

const (
	// ContentTypeRawText carries plain text.
	ContentTypeRawText ContentType = "raw_text"
	// ContentTypeConversationState carries the full conversation history of
	// a person. Edges with this content type are always processed,
	// regardless of the target's input gating.
	ContentTypeConversationState ContentType = "conversation_state"
	// ContentTypeObject carries a structured object. String payloads that
	// look like JSON are parsed at resolution time.
	ContentTypeObject ContentType = "object"
	// ContentTypeEmpty carries no payload; the token is a pure trigger.
	ContentTypeEmpty ContentType = "empty"
	// ContentTypeGeneric carries an arbitrary payload with no conversion.
	ContentTypeGeneric ContentType = "generic"
	// ContentTypeVariable carries a named execution variable.
	ContentTypeVariable ContentType = "variable"
)

// Valid reports whether the content type is one of the known kinds.
// The empty string is valid and means unspecified (treated as generic).
func (ct ContentType) Valid() bool {
	switch ct {
	case "", ContentTypeRawText, ContentTypeConversationState, ContentTypeObject,
		ContentTypeEmpty, ContentTypeGeneric, ContentTypeVariable:
		return true
	}
	return false
}

// DomainArrow is the authoring-time representation of an edge between two
// handles. Source must reference an output handle and Target an input handle.
type DomainArrow struct {
	ID          ArrowID        `json:"id" yaml:"id"`
	Source      HandleID       `json:"source" yaml:"source"`
	Target      HandleID       `json:"target" yaml:"target"`
	ContentType ContentType    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}
