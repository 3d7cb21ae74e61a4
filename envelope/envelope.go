//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package envelope defines the universal message container passed between
// nodes. Envelopes are immutable after construction; mutating helpers return
// copies.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Well-known representation keys.
const (
	// RepText is the plain-text representation.
	RepText = "text"
	// RepObject is the parsed-object representation.
	RepObject = "object"
	// RepMarkdownHTML is the markdown-rendered-to-HTML representation.
	RepMarkdownHTML = "markdown_html"
)

// Envelope carries one payload between nodes together with its provenance
// and optional alternate representations of the same payload.
type Envelope struct {
	body            any
	producedBy      diagram.NodeID
	trace           diagram.ExecutionID
	contentType     diagram.ContentType
	representations map[string]any
	meta            map[string]any
}

// Option configures an Envelope at construction time.
type Option func(*Envelope)

// WithProducer records the node that produced the envelope.
func WithProducer(id diagram.NodeID) Option {
	return func(e *Envelope) { e.producedBy = id }
}

// WithTrace records the execution the envelope belongs to.
func WithTrace(id diagram.ExecutionID) Option {
	return func(e *Envelope) { e.trace = id }
}

// WithContentType sets the payload content type.
func WithContentType(ct diagram.ContentType) Option {
	return func(e *Envelope) { e.contentType = ct }
}

// WithMeta attaches one metadata entry.
func WithMeta(key string, value any) Option {
	return func(e *Envelope) {
		if e.meta == nil {
			e.meta = make(map[string]any)
		}
		e.meta[key] = value
	}
}

// WithRepresentation attaches one alternate representation of the payload.
func WithRepresentation(key string, value any) Option {
	return func(e *Envelope) {
		if e.representations == nil {
			e.representations = make(map[string]any)
		}
		e.representations[key] = value
	}
}

// New creates an envelope with the given body.
func New(body any, opts ...Option) *Envelope {
	e := &Envelope{body: body}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Text creates a raw-text envelope.
func Text(s string, opts ...Option) *Envelope {
	opts = append([]Option{WithContentType(diagram.ContentTypeRawText)}, opts...)
	return New(s, opts...)
}

// Object creates an object envelope.
func Object(v any, opts ...Option) *Envelope {
	opts = append([]Option{WithContentType(diagram.ContentTypeObject)}, opts...)
	return New(v, opts...)
}

// Empty creates a trigger envelope with no payload.
func Empty(opts ...Option) *Envelope {
	opts = append([]Option{WithContentType(diagram.ContentTypeEmpty)}, opts...)
	return New(nil, opts...)
}

// ErrorValue creates an error envelope carrying the error message and code,
// for condition error branches.
func ErrorValue(code, message string, opts ...Option) *Envelope {
	opts = append([]Option{WithContentType(diagram.ContentTypeObject)}, opts...)
	return New(map[string]any{"error": message, "code": code}, opts...)
}

// Body returns the payload.
func (e *Envelope) Body() any { return e.body }

// ProducedBy returns the producing node ID.
func (e *Envelope) ProducedBy() diagram.NodeID { return e.producedBy }

// Trace returns the execution ID the envelope belongs to.
func (e *Envelope) Trace() diagram.ExecutionID { return e.trace }

// ContentType returns the payload content type.
func (e *Envelope) ContentType() diagram.ContentType { return e.contentType }

// Meta returns one metadata entry.
func (e *Envelope) Meta(key string) (any, bool) {
	v, ok := e.meta[key]
	return v, ok
}

// Representation returns the named alternate representation if present.
func (e *Envelope) Representation(key string) (any, bool) {
	v, ok := e.representations[key]
	return v, ok
}

// WithBody returns a copy of the envelope with a different body. Alternate
// representations are dropped since they describe the old payload.
func (e *Envelope) WithBody(body any) *Envelope {
	clone := *e
	clone.body = body
	clone.representations = nil
	return &clone
}

// AddRepresentation returns a copy of the envelope carrying the extra
// representation. Adding a representation under an existing key is a no-op,
// so the operation is idempotent.
func (e *Envelope) AddRepresentation(key string, value any) *Envelope {
	if _, ok := e.representations[key]; ok {
		return e
	}
	clone := *e
	clone.representations = make(map[string]any, len(e.representations)+1)
	for k, v := range e.representations {
		clone.representations[k] = v
	}
	clone.representations[key] = value
	return &clone
}

// AsText renders the payload as plain text, preferring the text
// representation when one is attached.
func (e *Envelope) AsText() string {
	if v, ok := e.representations[RepText]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	switch b := e.body.(type) {
	case nil:
		return ""
	case string:
		return b
	case []byte:
		return string(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Sprintf("%v", b)
		}
		return string(raw)
	}
}

// AsObject returns the payload as a structured value, preferring the object
// representation when one is attached.
func (e *Envelope) AsObject() any {
	if v, ok := e.representations[RepObject]; ok {
		return v
	}
	return e.body
}

// MarkdownHTML renders the text form of the payload from markdown to HTML,
// preferring a pre-rendered representation when one is attached.
func (e *Envelope) MarkdownHTML() (string, error) {
	if v, ok := e.representations[RepMarkdownHTML]; ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(e.AsText()), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
