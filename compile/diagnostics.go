//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package compile

import (
	"fmt"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityError invalidates the compilation result.
	SeverityError Severity = "error"
	// SeverityWarning is reported but never invalidates a result.
	SeverityWarning Severity = "warning"
)

// Code identifies one class of compiler finding.
type Code string

// Diagnostic is one finding reported by a compiler phase.
type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Phase    Phase          `json:"phase"`
	Code     Code           `json:"code"`
	Message  string         `json:"message"`
	NodeID   diagram.NodeID `json:"node_id,omitempty"`
	ArrowID  diagram.ArrowID `json:"arrow_id,omitempty"`
}

func (d Diagnostic) String() string {
	if d.NodeID != "" {
		return fmt.Sprintf("%s [%s] %s: node %s: %s", d.Severity, d.Phase, d.Code, d.NodeID, d.Message)
	}
	if d.ArrowID != "" {
		return fmt.Sprintf("%s [%s] %s: arrow %s: %s", d.Severity, d.Phase, d.Code, d.ArrowID, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Phase, d.Code, d.Message)
}

// Diagnostic codes reported by the compiler.
const (
	CodeDuplicateID        Code = "duplicate_id"
	CodeMalformedHandle    Code = "malformed_handle"
	CodeDanglingArrow      Code = "dangling_arrow"
	CodeDirectionMismatch  Code = "direction_mismatch"
	CodeTypeMismatch       Code = "type_mismatch"
	CodeStartHasInput      Code = "start_has_input"
	CodeEndpointHasOutput  Code = "endpoint_has_output"
	CodeUnreachableNode    Code = "unreachable_node"
	CodeNoStartNode        Code = "no_start_node"
	CodeBranchNotCondition Code = "branch_not_condition"
	CodeMissingBranch      Code = "missing_branch"
	CodeUnknownNodeType    Code = "unknown_node_type"
	CodeBadNodeConfig      Code = "bad_node_config"
	CodeUnknownContentType Code = "unknown_content_type"
	CodeUnknownPerson      Code = "unknown_person"
)

// Result is the outcome of one compilation: the executable diagram when the
// input was valid, plus every diagnostic collected along the way.
type Result struct {
	Diagram     *diagram.ExecutableDiagram
	Diagnostics []Diagnostic
	// Completed is the last phase that ran.
	Completed Phase
}

// IsValid reports whether no error-severity diagnostic was recorded.
func (r *Result) IsValid() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-severity diagnostics.
func (r *Result) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warning-severity diagnostics.
func (r *Result) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

func (r *Result) errorf(phase Phase, code Code, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityError,
		Phase:    phase,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Result) nodeErrorf(phase Phase, code Code, node diagram.NodeID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityError,
		Phase:    phase,
		Code:     code,
		NodeID:   node,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Result) arrowErrorf(phase Phase, code Code, arrow diagram.ArrowID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityError,
		Phase:    phase,
		Code:     code,
		ArrowID:  arrow,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (r *Result) nodeWarnf(phase Phase, code Code, node diagram.NodeID, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Phase:    phase,
		Code:     code,
		NodeID:   node,
		Message:  fmt.Sprintf(format, args...),
	})
}
