//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package resolve

import (
	"encoding/json"
	"fmt"
	"strings"
)

// variableExtract extracts a named variable from an object by key path.
// Param "path" is a dot-separated key path ("result.items").
func variableExtract(value any, params map[string]any) (any, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("variable_extract: missing path parameter")
	}
	cur := value
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("variable_extract: %q is not an object at %q", path, key)
		}
		cur, ok = obj[key]
		if !ok {
			return nil, fmt.Errorf("variable_extract: key %q not found", key)
		}
	}
	return cur, nil
}

// formatString applies "hello {value}" style substitution. The whole value
// substitutes {value}; object values additionally substitute {key} per key.
func formatString(value any, params map[string]any) (any, error) {
	format, _ := params["format"].(string)
	if format == "" {
		return nil, fmt.Errorf("format_string: missing format parameter")
	}
	pairs := []string{"{value}", stringify(value)}
	if obj, ok := value.(map[string]any); ok {
		for k, v := range obj {
			pairs = append(pairs, "{"+k+"}", stringify(v))
		}
	}
	return strings.NewReplacer(pairs...).Replace(format), nil
}

// contentTypeConvert parses JSON-looking string payloads into objects.
// Non-string values pass through, as do strings that fail to parse, so the
// rule is idempotent on already-parsed values.
func contentTypeConvert(value any, _ map[string]any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return value, nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		// Parse failure returns the original unchanged.
		return value, nil
	}
	return parsed, nil
}

// extractToolResults pulls tool-call results out of a person job output.
func extractToolResults(value any, _ map[string]any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("extract_tool_results: value is not an object")
	}
	results, ok := obj["tool_results"]
	if !ok {
		return nil, fmt.Errorf("extract_tool_results: no tool_results key")
	}
	return results, nil
}

// branchOnCondition is validated at compile time; at runtime it is a no-op.
func branchOnCondition(value any, _ map[string]any) (any, error) {
	return value, nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
