//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package handler

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/event"
	"trpc.group/trpc-go/dipeo/exec"
	"trpc.group/trpc-go/dipeo/service"
)

// childDiagram builds a compiled start -> code -> endpoint chain the way the
// compiler would emit it.
func childDiagram(id diagram.DiagramID) *diagram.ExecutableDiagram {
	nodes := []*diagram.ExecutableNode{
		{ID: "a-start", Type: diagram.NodeTypeStart, Join: diagram.JoinAll,
			Config: &diagram.StartConfig{Trigger: diagram.TriggerManual}, Rank: 0},
		{ID: "b-pick", Type: diagram.NodeTypeCodeJob, Join: diagram.JoinAll,
			Config: &diagram.CodeJobConfig{Language: diagram.CodeLanguageExpr,
				Code: `inputs["default"]["default"]`}, Rank: 1},
		{ID: "c-end", Type: diagram.NodeTypeEndpoint, Join: diagram.JoinAll,
			Config: &diagram.EndpointConfig{}, Rank: 2},
	}
	edges := []*diagram.ExecutableEdge{
		{ID: "e1", Source: "a-start", Target: "b-pick",
			SourceOutput: string(diagram.LabelDefault), TargetInput: string(diagram.LabelDefault)},
		{ID: "e2", Source: "b-pick", Target: "c-end",
			SourceOutput: string(diagram.LabelDefault), TargetInput: string(diagram.LabelDefault)},
	}
	d := &diagram.ExecutableDiagram{
		Nodes:          make(map[diagram.NodeID]*diagram.ExecutableNode),
		Edges:          edges,
		IncomingByNode: make(map[diagram.NodeID][]*diagram.ExecutableEdge),
		OutgoingByNode: make(map[diagram.NodeID][]*diagram.ExecutableEdge),
		Metadata:       diagram.Metadata{ID: id},
	}
	for _, n := range nodes {
		d.Nodes[n.ID] = n
		d.Order = append(d.Order, n.ID)
		if n.Type == diagram.NodeTypeStart {
			d.StartNodes = append(d.StartNodes, n.ID)
		}
	}
	sort.Slice(d.Order, func(i, j int) bool { return d.Order[i] < d.Order[j] })
	for _, e := range edges {
		d.IncomingByNode[e.Target] = append(d.IncomingByNode[e.Target], e)
		d.OutgoingByNode[e.Source] = append(d.OutgoingByNode[e.Source], e)
	}
	return d
}

func TestRunnerRunsRegisteredDiagram(t *testing.T) {
	registry := exec.NewRegistry()
	require.NoError(t, RegisterBuiltins(registry))
	bus := event.NewBus()
	defer bus.Close()

	runner := NewRunner(registry, bus, &service.Set{})
	runner.Add(childDiagram("child"))

	out, err := runner.Run(context.Background(), "child", textIn("inner-value"))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "inner-value", out.Body(),
		"the input seeds the child's variables and flows to its endpoint")
}

func TestRunnerUnknownDiagram(t *testing.T) {
	registry := exec.NewRegistry()
	require.NoError(t, RegisterBuiltins(registry))
	bus := event.NewBus()
	defer bus.Close()

	runner := NewRunner(registry, bus, &service.Set{})
	_, err := runner.Run(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, exec.CodeValidation, exec.AsError(err).Code)
}
