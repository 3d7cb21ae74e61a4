//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package event implements the typed execution event fabric: the event
// values, the process-wide bus that fans them out to subscribers, and the
// router that exposes the subscription surface.
package event

import (
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Type is the taxonomy of execution events.
type Type string

const (
	// TypeExecutionStarted signals the start of an execution.
	TypeExecutionStarted Type = "execution_started"
	// TypeExecutionCompleted signals successful termination.
	TypeExecutionCompleted Type = "execution_completed"
	// TypeExecutionError signals fatal termination.
	TypeExecutionError Type = "execution_error"
	// TypeExecutionAborted signals cancelled termination.
	TypeExecutionAborted Type = "execution_aborted"
	// TypeNodeStarted signals a node transitioned to running.
	TypeNodeStarted Type = "node_started"
	// TypeNodeCompleted signals a node completed.
	TypeNodeCompleted Type = "node_completed"
	// TypeNodeError signals a node failure or retry attempt.
	TypeNodeError Type = "node_error"
	// TypeNodeOutput carries a node's output payload.
	TypeNodeOutput Type = "node_output"
	// TypeExecutionLog carries a log line scoped to an execution.
	TypeExecutionLog Type = "execution_log"
	// TypeInteractivePrompt requests a user response.
	TypeInteractivePrompt Type = "interactive_prompt"
	// TypeInteractiveResponse carries a user response.
	TypeInteractiveResponse Type = "interactive_response"
	// TypeSubscriberDropped is the diagnostic emitted when a slow
	// subscriber is detached from the bus.
	TypeSubscriberDropped Type = "subscriber_dropped"
)

// Well-known payload keys.
const (
	// KeyStatus is the node or execution status.
	KeyStatus = "status"
	// KeyOutput is the node output payload.
	KeyOutput = "output"
	// KeyError is the human-readable error message.
	KeyError = "error"
	// KeyErrorCode is the stable error code.
	KeyErrorCode = "error_code"
	// KeyRetryable marks a retryable node error.
	KeyRetryable = "retryable"
	// KeyAttempt is the retry attempt number.
	KeyAttempt = "attempt"
	// KeyMessage is a log or prompt message.
	KeyMessage = "message"
	// KeyFailedNodes lists non-fatally failed nodes in the terminal event.
	KeyFailedNodes = "failed_nodes"
	// KeySkippedNodes lists nodes that never became ready.
	KeySkippedNodes = "skipped_nodes"
	// KeySubscriberID identifies a detached subscriber.
	KeySubscriberID = "subscriber_id"
	// KeyResponse carries the interactive response value.
	KeyResponse = "response"
	// KeyEpoch is the epoch in which a node fired.
	KeyEpoch = "epoch"
)

// Event is one typed execution event. Sequence is strictly increasing per
// execution; it is stamped by the bus at publication time so reconnecting
// subscribers can detect gaps.
type Event struct {
	ID          string              `json:"id"`
	Type        Type                `json:"type"`
	ExecutionID diagram.ExecutionID `json:"execution_id"`
	NodeID      diagram.NodeID      `json:"node_id,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
	Sequence    uint64              `json:"sequence_no"`
	Payload     map[string]any      `json:"payload,omitempty"`
}

// Option configures an event at construction time.
type Option func(*Event)

// WithNodeID scopes the event to a node.
func WithNodeID(id diagram.NodeID) Option {
	return func(e *Event) { e.NodeID = id }
}

// WithPayload merges payload entries into the event.
func WithPayload(kv map[string]any) Option {
	return func(e *Event) {
		if e.Payload == nil {
			e.Payload = make(map[string]any, len(kv))
		}
		for k, v := range kv {
			e.Payload[k] = v
		}
	}
}

// New creates an event for the given execution.
func New(execID diagram.ExecutionID, t Type, opts ...Option) *Event {
	e := &Event{
		ID:          uuid.NewString(),
		Type:        t,
		ExecutionID: execID,
		Timestamp:   time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clone returns a shallow copy of the event with its own payload map.
func (e *Event) Clone() *Event {
	clone := *e
	if e.Payload != nil {
		clone.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			clone.Payload[k] = v
		}
	}
	return &clone
}
