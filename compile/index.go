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

// runIndexing builds the executable edges with their runtime hints, the
// adjacency maps, the start-node set, and the topological ranks used by the
// scheduler's ordering policy. Members of a cycle share a rank.
func (c *Compiler) runIndexing(comp *compilation) {
	in := comp.in

	// Materialise edges in canonical arrow order.
	for _, id := range in.SortedArrowIDs() {
		plan, ok := comp.plans[id]
		if !ok {
			continue
		}
		edge := &diagram.ExecutableEdge{
			ID:           id,
			Source:       plan.sourceNode,
			Target:       plan.targetNode,
			SourceOutput: string(plan.sourceLabel),
			TargetInput:  string(plan.targetLabel),
			ContentType:  plan.contentType,
			Label:        plan.arrow.Label,
			Rules:        plan.rules,
			Hints: diagram.EdgeHints{
				IsConditionalBranch: plan.sourceLabel == diagram.LabelCondTrue ||
					plan.sourceLabel == diagram.LabelCondFalse,
				IsFirstOnly: plan.targetLabel == diagram.LabelFirst ||
					hasFirstSuffix(string(plan.targetLabel)),
				IsConversationState: plan.contentType == diagram.ContentTypeConversationState,
			},
		}
		comp.edges = append(comp.edges, edge)
	}

	ranks := topologicalRanks(comp)
	for id, rank := range ranks {
		if node, ok := comp.nodes[id]; ok {
			node.Rank = rank
		}
	}

	// An edge that does not move strictly forward in rank re-enters a loop
	// body; emitting on it begins a new epoch.
	for _, edge := range comp.edges {
		if ranks[edge.Target] <= ranks[edge.Source] {
			edge.Hints.IsLoopBack = true
		}
	}
}

func hasFirstSuffix(label string) bool {
	const suffix = "_first"
	return len(label) > len(suffix) && label[len(label)-len(suffix):] == suffix
}

// topologicalRanks assigns each node its longest-path depth over the
// condensation of the edge graph, so cycle members share a rank. The
// computation iterates nodes in sorted order and is fully deterministic.
func topologicalRanks(comp *compilation) map[diagram.NodeID]int {
	ids := comp.in.SortedNodeIDs()
	index := make(map[diagram.NodeID]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	adj := make([][]int, len(ids))
	for _, edge := range comp.edges {
		si, sok := index[edge.Source]
		ti, tok := index[edge.Target]
		if sok && tok {
			adj[si] = append(adj[si], ti)
		}
	}

	scc := stronglyConnected(len(ids), adj)

	// Condensation edges and in-degrees.
	compCount := 0
	for _, c := range scc {
		if c+1 > compCount {
			compCount = c + 1
		}
	}
	condAdj := make(map[int]map[int]bool, compCount)
	indeg := make([]int, compCount)
	for u, next := range adj {
		for _, v := range next {
			cu, cv := scc[u], scc[v]
			if cu == cv {
				continue
			}
			if condAdj[cu] == nil {
				condAdj[cu] = make(map[int]bool)
			}
			if !condAdj[cu][cv] {
				condAdj[cu][cv] = true
				indeg[cv]++
			}
		}
	}

	// Kahn over the condensation; rank is the longest path from a source.
	rank := make([]int, compCount)
	var queue []int
	for c := 0; c < compCount; c++ {
		if indeg[c] == 0 {
			queue = append(queue, c)
		}
	}
	for len(queue) > 0 {
		sort.Ints(queue)
		cur := queue[0]
		queue = queue[1:]
		var succ []int
		for v := range condAdj[cur] {
			succ = append(succ, v)
		}
		sort.Ints(succ)
		for _, v := range succ {
			if rank[cur]+1 > rank[v] {
				rank[v] = rank[cur] + 1
			}
			indeg[v]--
			if indeg[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	out := make(map[diagram.NodeID]int, len(ids))
	for i, id := range ids {
		out[id] = rank[scc[i]]
	}
	return out
}

// stronglyConnected runs Tarjan's algorithm and returns the component index
// of each vertex. Component numbering is deterministic given the input
// ordering.
func stronglyConnected(n int, adj [][]int) []int {
	const unvisited = -1
	comp := make([]int, n)
	low := make([]int, n)
	disc := make([]int, n)
	onStack := make([]bool, n)
	for i := range disc {
		disc[i] = unvisited
		comp[i] = unvisited
	}
	var stack []int
	timer := 0
	comps := 0

	var dfs func(u int)
	dfs = func(u int) {
		disc[u] = timer
		low[u] = timer
		timer++
		stack = append(stack, u)
		onStack[u] = true
		for _, v := range adj[u] {
			if disc[v] == unvisited {
				dfs(v)
				if low[v] < low[u] {
					low[u] = low[v]
				}
			} else if onStack[v] && disc[v] < low[u] {
				low[u] = disc[v]
			}
		}
		if low[u] == disc[u] {
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = comps
				if w == u {
					break
				}
			}
			comps++
		}
	}
	for u := 0; u < n; u++ {
		if disc[u] == unvisited {
			dfs(u)
		}
	}
	return comp
}

// assemble packages the compiled state into the immutable executable diagram.
func (comp *compilation) assemble() *diagram.ExecutableDiagram {
	order := comp.in.SortedNodeIDs()
	incoming := make(map[diagram.NodeID][]*diagram.ExecutableEdge)
	outgoing := make(map[diagram.NodeID][]*diagram.ExecutableEdge)
	for _, edge := range comp.edges {
		incoming[edge.Target] = append(incoming[edge.Target], edge)
		outgoing[edge.Source] = append(outgoing[edge.Source], edge)
	}
	var starts []diagram.NodeID
	for _, id := range order {
		if node, ok := comp.nodes[id]; ok && node.Type == diagram.NodeTypeStart {
			starts = append(starts, id)
		}
	}
	return &diagram.ExecutableDiagram{
		Nodes:          comp.nodes,
		Order:          order,
		Edges:          comp.edges,
		IncomingByNode: incoming,
		OutgoingByNode: outgoing,
		StartNodes:     starts,
		Persons:        comp.in.Persons,
		Metadata:       comp.in.Metadata,
	}
}
