//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package exec

import (
	"errors"
	"fmt"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Code is the stable error code attached to every runtime error.
type Code string

const (
	// CodeValidation marks a compile-time violation surfacing at run time.
	CodeValidation Code = "VALIDATION"
	// CodeInputResolution marks a node that could not build its inputs.
	CodeInputResolution Code = "INPUT_RESOLUTION_FAILED"
	// CodeHandlerFailed marks a typed handler failure.
	CodeHandlerFailed Code = "HANDLER_FAILED"
	// CodeHandlerTimeout marks a handler that exceeded its timeout.
	CodeHandlerTimeout Code = "HANDLER_TIMEOUT"
	// CodeExternalService marks a failure surfaced by a port adapter.
	CodeExternalService Code = "EXTERNAL_SERVICE"
	// CodeCancelled marks cooperative cancellation.
	CodeCancelled Code = "CANCELLED"
	// CodeInternal marks an engine invariant violation; always fatal.
	CodeInternal Code = "INTERNAL"
)

// Error is the typed error every runtime failure is reported as.
type Error struct {
	Code      Code
	Message   string
	Node      diagram.NodeID
	Retryable bool
	Attempt   int
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: node %s: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a typed error.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HandlerFailed wraps a handler error, preserving an existing typed error.
func HandlerFailed(node diagram.NodeID, err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		if typed.Node == "" {
			typed.Node = node
		}
		return typed
	}
	return &Error{Code: CodeHandlerFailed, Message: err.Error(), Node: node, Err: err}
}

// Retryable marks an error as retryable and returns it.
func Retryable(err *Error) *Error {
	err.Retryable = true
	return err
}

// AsError extracts the typed error from an error chain, wrapping foreign
// errors as HANDLER_FAILED.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Code: CodeHandlerFailed, Message: err.Error(), Err: err}
}
