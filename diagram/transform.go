//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// TransformKind tags one transformation rule resolved at compile time.
// Rules carry serialisable parameters only; the runtime rule registry maps
// each kind to a pure function.
type TransformKind string

const (
	// TransformVariableExtract extracts a named variable from an object by
	// key path. Param "path" is a dot-separated key path.
	TransformVariableExtract TransformKind = "variable_extract"
	// TransformFormatString applies "hello {value}" style substitution.
	// Param "format" is the format template.
	TransformFormatString TransformKind = "format_string"
	// TransformContentTypeConvert parses JSON-looking string payloads into
	// objects. Non-string values and unparseable strings pass through.
	TransformContentTypeConvert TransformKind = "content_type_convert"
	// TransformExtractToolResults pulls tool-call results out of a person
	// job output object.
	TransformExtractToolResults TransformKind = "extract_tool_results"
	// TransformBranchOnCondition is validated at compile time and is a
	// no-op at runtime.
	TransformBranchOnCondition TransformKind = "branch_on_condition"
)

// TransformRule is a typed tag plus parameters, applied in order along an
// edge at input resolution time. Rules never carry closures so that the
// executable diagram stays a pure value.
type TransformRule struct {
	Kind   TransformKind  `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}
