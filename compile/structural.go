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
	"sort"

	"trpc.group/trpc-go/dipeo/diagram"
)

// runStructural validates the domain diagram invariants: ID consistency,
// handle well-formedness, arrow endpoint compatibility, start/endpoint edge
// rules, condition branch placement and reachability.
func (c *Compiler) runStructural(comp *compilation) {
	in := comp.in
	res := comp.result

	// Node identity and type checks.
	for _, id := range in.SortedNodeIDs() {
		node := in.Nodes[id]
		if node.ID != id {
			res.nodeErrorf(PhaseStructural, CodeDuplicateID, id,
				"node keyed as %q but carries id %q", id, node.ID)
		}
		if !node.Type.Valid() {
			res.nodeErrorf(PhaseStructural, CodeUnknownNodeType, id,
				"unknown node type %q", node.Type)
		}
	}

	// Handle well-formedness: the ID must parse back into the handle's own
	// node, label and direction, and the node must exist.
	for _, h := range sortedHandles(in) {
		node, label, direction, err := diagram.ParseHandleID(h.ID)
		if err != nil {
			res.errorf(PhaseStructural, CodeMalformedHandle, "handle %q: %v", h.ID, err)
			continue
		}
		if node != h.NodeID || label != h.Label || direction != h.Direction {
			res.errorf(PhaseStructural, CodeMalformedHandle,
				"handle %q does not match its declared node/label/direction", h.ID)
			continue
		}
		if _, ok := in.Nodes[h.NodeID]; !ok {
			res.errorf(PhaseStructural, CodeDanglingArrow,
				"handle %q references missing node %q", h.ID, h.NodeID)
			continue
		}
		// Branch labels are reserved for condition node outputs.
		if label == diagram.LabelCondTrue || label == diagram.LabelCondFalse {
			owner := in.Nodes[h.NodeID]
			if owner.Type != diagram.NodeTypeCondition || direction != diagram.DirectionOutput {
				res.nodeErrorf(PhaseStructural, CodeBranchNotCondition, h.NodeID,
					"handle label %q only appears on outputs of condition nodes", label)
			}
		}
	}

	// Arrow endpoint checks.
	for _, id := range in.SortedArrowIDs() {
		arrow := in.Arrows[id]
		if arrow.ID != id {
			res.arrowErrorf(PhaseStructural, CodeDuplicateID, id,
				"arrow keyed as %q but carries id %q", id, arrow.ID)
		}
		if !arrow.ContentType.Valid() {
			res.arrowErrorf(PhaseStructural, CodeUnknownContentType, id,
				"unknown content type %q", arrow.ContentType)
		}
		src, srcOK := in.Handle(arrow.Source)
		dst, dstOK := in.Handle(arrow.Target)
		if !srcOK {
			res.arrowErrorf(PhaseStructural, CodeDanglingArrow, id,
				"source handle %q does not exist", arrow.Source)
		}
		if !dstOK {
			res.arrowErrorf(PhaseStructural, CodeDanglingArrow, id,
				"target handle %q does not exist", arrow.Target)
		}
		if !srcOK || !dstOK {
			continue
		}
		if src.Direction != diagram.DirectionOutput || dst.Direction != diagram.DirectionInput {
			res.arrowErrorf(PhaseStructural, CodeDirectionMismatch, id,
				"arrows connect an output handle to an input handle, got %s -> %s",
				src.Direction, dst.Direction)
		}
		if !diagram.Compatible(src.DataType, dst.DataType) {
			res.arrowErrorf(PhaseStructural, CodeTypeMismatch, id,
				"source type %q is incompatible with target type %q",
				src.DataType, dst.DataType)
		}
	}

	inbound, outbound := degreeByNode(in)

	// Start and endpoint edge rules, plus the start-node requirement.
	starts := 0
	for _, id := range in.SortedNodeIDs() {
		node := in.Nodes[id]
		switch node.Type {
		case diagram.NodeTypeStart:
			starts++
			if inbound[id] > 0 {
				res.nodeErrorf(PhaseStructural, CodeStartHasInput, id,
					"start nodes cannot have input edges")
			}
		case diagram.NodeTypeEndpoint:
			if outbound[id] > 0 {
				res.nodeErrorf(PhaseStructural, CodeEndpointHasOutput, id,
					"endpoint nodes cannot have output edges")
			}
		}
	}
	if starts == 0 {
		res.errorf(PhaseStructural, CodeNoStartNode, "diagram has no start node")
	}

	// Reachability from start nodes: unreachable nodes are warnings.
	reachable := reachableFromStarts(in)
	for _, id := range in.SortedNodeIDs() {
		node := in.Nodes[id]
		if node.Type == diagram.NodeTypeStart {
			continue
		}
		if !reachable[id] {
			res.nodeWarnf(PhaseStructural, CodeUnreachableNode, id,
				"node is not reachable from any start node")
		}
	}
}

func sortedHandles(in *diagram.DomainDiagram) []diagram.DomainHandle {
	out := make([]diagram.DomainHandle, 0, len(in.Handles))
	for _, id := range sortedHandleIDs(in) {
		out = append(out, in.Handles[id])
	}
	return out
}

func sortedHandleIDs(in *diagram.DomainDiagram) []diagram.HandleID {
	ids := make([]diagram.HandleID, 0, len(in.Handles))
	for id := range in.Handles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// degreeByNode counts inbound and outbound arrows per node, resolving arrow
// endpoints through their handles.
func degreeByNode(in *diagram.DomainDiagram) (inbound, outbound map[diagram.NodeID]int) {
	inbound = make(map[diagram.NodeID]int)
	outbound = make(map[diagram.NodeID]int)
	for _, arrow := range in.Arrows {
		if src, ok := in.Handle(arrow.Source); ok {
			outbound[src.NodeID]++
		}
		if dst, ok := in.Handle(arrow.Target); ok {
			inbound[dst.NodeID]++
		}
	}
	return inbound, outbound
}

func reachableFromStarts(in *diagram.DomainDiagram) map[diagram.NodeID]bool {
	next := make(map[diagram.NodeID][]diagram.NodeID)
	for _, arrow := range in.Arrows {
		src, srcOK := in.Handle(arrow.Source)
		dst, dstOK := in.Handle(arrow.Target)
		if srcOK && dstOK {
			next[src.NodeID] = append(next[src.NodeID], dst.NodeID)
		}
	}
	seen := make(map[diagram.NodeID]bool)
	var queue []diagram.NodeID
	for _, id := range in.SortedNodeIDs() {
		if in.Nodes[id].Type == diagram.NodeTypeStart {
			seen[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next[cur] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}
