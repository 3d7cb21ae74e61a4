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

// runConnection derives source and target ports for every arrow from the
// handle labels, attaches the content type, and verifies that branch handles
// actually exist on their parent condition nodes.
func (c *Compiler) runConnection(comp *compilation) {
	in := comp.in
	res := comp.result

	for _, id := range in.SortedArrowIDs() {
		arrow := in.Arrows[id]
		src, srcOK := in.Handle(arrow.Source)
		dst, dstOK := in.Handle(arrow.Target)
		if !srcOK || !dstOK {
			// Already reported by the structural phase.
			continue
		}
		ct := arrow.ContentType
		if ct == "" {
			ct = diagram.ContentTypeGeneric
		}
		comp.plans[id] = &edgePlan{
			arrow:       arrow,
			sourceNode:  src.NodeID,
			targetNode:  dst.NodeID,
			sourceLabel: src.Label,
			targetLabel: dst.Label,
			contentType: ct,
		}
	}

	// Every condition node that feeds a branch consumer must expose both
	// branch handles, otherwise the untaken branch could never be wired.
	for _, id := range in.SortedNodeIDs() {
		node := in.Nodes[id]
		if node.Type != diagram.NodeTypeCondition {
			continue
		}
		hasTrue := false
		hasFalse := false
		for _, h := range in.HandlesOf(id) {
			if h.Direction != diagram.DirectionOutput {
				continue
			}
			switch h.Label {
			case diagram.LabelCondTrue:
				hasTrue = true
			case diagram.LabelCondFalse:
				hasFalse = true
			}
		}
		if !hasTrue || !hasFalse {
			res.nodeErrorf(PhaseConnection, CodeMissingBranch, id,
				"condition node must expose both condtrue and condfalse outputs")
		}
	}
}
