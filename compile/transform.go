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
	"trpc.group/trpc-go/dipeo/diagram"
)

// runTransformRules plans the ordered transformation rules of every edge.
// Rules are typed tags with serialisable parameters; the runtime rule
// registry binds them to functions. Planning order is fixed so compilation
// stays deterministic:
//
//  1. extract_tool_results  (results port of a person job)
//  2. variable_extract      (explicit "extract" path or variable content)
//  3. content_type_convert  (object content type)
//  4. format_string         (explicit "format" template)
//  5. branch_on_condition   (branch edges; runtime no-op)
func (c *Compiler) runTransformRules(comp *compilation) {
	in := comp.in

	for _, id := range in.SortedArrowIDs() {
		plan, ok := comp.plans[id]
		if !ok {
			continue
		}
		var rules []diagram.TransformRule

		srcNode := in.Nodes[plan.sourceNode]
		if plan.sourceLabel == diagram.LabelResults &&
			srcNode.Type == diagram.NodeTypePersonJob {
			rules = append(rules, diagram.TransformRule{
				Kind: diagram.TransformExtractToolResults,
			})
		}

		if path, ok := plan.arrow.Data["extract"].(string); ok && path != "" {
			rules = append(rules, diagram.TransformRule{
				Kind:   diagram.TransformVariableExtract,
				Params: map[string]any{"path": path},
			})
		} else if plan.contentType == diagram.ContentTypeVariable && plan.arrow.Label != "" {
			rules = append(rules, diagram.TransformRule{
				Kind:   diagram.TransformVariableExtract,
				Params: map[string]any{"path": plan.arrow.Label},
			})
		}

		if plan.contentType == diagram.ContentTypeObject {
			rules = append(rules, diagram.TransformRule{
				Kind: diagram.TransformContentTypeConvert,
			})
		}

		if format, ok := plan.arrow.Data["format"].(string); ok && format != "" {
			rules = append(rules, diagram.TransformRule{
				Kind:   diagram.TransformFormatString,
				Params: map[string]any{"format": format},
			})
		}

		if plan.sourceLabel == diagram.LabelCondTrue ||
			plan.sourceLabel == diagram.LabelCondFalse {
			rules = append(rules, diagram.TransformRule{
				Kind: diagram.TransformBranchOnCondition,
			})
		}

		plan.rules = rules
	}
}
