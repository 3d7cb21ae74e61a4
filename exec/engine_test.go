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
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/event"
)

// mockHandler adapts a closure to the Handler interface.
type mockHandler struct {
	nt diagram.NodeType
	fn func(ctx context.Context, node *diagram.ExecutableNode,
		inputs map[string]*envelope.Envelope, nc *NodeContext) (map[string]*envelope.Envelope, error)
}

func (m *mockHandler) NodeType() diagram.NodeType { return m.nt }

func (m *mockHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *NodeContext) (map[string]*envelope.Envelope, error) {
	return m.fn(ctx, node, inputs, nc)
}

// echoHandler passes its first input through on the default port.
func echoHandler(nt diagram.NodeType) *mockHandler {
	return &mockHandler{nt: nt, fn: func(_ context.Context, node *diagram.ExecutableNode,
		inputs map[string]*envelope.Envelope, _ *NodeContext) (map[string]*envelope.Envelope, error) {
		for _, env := range inputs {
			return defaultOut(env), nil
		}
		return defaultOut(envelope.Empty(envelope.WithProducer(node.ID))), nil
	}}
}

func textHandler(nt diagram.NodeType, text string) *mockHandler {
	return &mockHandler{nt: nt, fn: func(context.Context, *diagram.ExecutableNode,
		map[string]*envelope.Envelope, *NodeContext) (map[string]*envelope.Envelope, error) {
		return defaultOut(envelope.Text(text)), nil
	}}
}

func defaultOut(env *envelope.Envelope) map[string]*envelope.Envelope {
	return map[string]*envelope.Envelope{string(diagram.LabelDefault): env}
}

func registryOf(t *testing.T, handlers ...Handler) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, h := range handlers {
		require.NoError(t, r.Register(h))
	}
	return r
}

// execDiagram indexes nodes and edges into a runnable diagram. Ranks and
// hints come from the caller; this mirrors what the compiler emits.
func execDiagram(nodes []*diagram.ExecutableNode,
	edges []*diagram.ExecutableEdge) *diagram.ExecutableDiagram {
	d := &diagram.ExecutableDiagram{
		Nodes:          make(map[diagram.NodeID]*diagram.ExecutableNode, len(nodes)),
		Edges:          edges,
		IncomingByNode: make(map[diagram.NodeID][]*diagram.ExecutableEdge),
		OutgoingByNode: make(map[diagram.NodeID][]*diagram.ExecutableEdge),
		Metadata:       diagram.Metadata{ID: "engine-test"},
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

func node(id diagram.NodeID, nt diagram.NodeType, rank int) *diagram.ExecutableNode {
	return &diagram.ExecutableNode{ID: id, Type: nt, Join: diagram.JoinAll, Rank: rank}
}

func edge(id diagram.ArrowID, src, dst diagram.NodeID) *diagram.ExecutableEdge {
	return &diagram.ExecutableEdge{ID: id, Source: src, Target: dst,
		SourceOutput: string(diagram.LabelDefault), TargetInput: string(diagram.LabelDefault)}
}

func TestEngineLinearFlow(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("b-work", diagram.NodeTypeCodeJob, 1),
			node("c-end", diagram.NodeTypeEndpoint, 2),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "b-work"),
			edge("e2", "b-work", "c-end"),
		},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "seed"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(_ context.Context,
			_ *diagram.ExecutableNode, inputs map[string]*envelope.Envelope,
			_ *NodeContext) (map[string]*envelope.Envelope, error) {
			text, _ := inputs[string(diagram.LabelDefault)].Body().(string)
			return defaultOut(envelope.Text(text + "!")), nil
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Empty(t, result.FailedNodes)
	assert.Empty(t, result.SkippedNodes)
	require.Contains(t, result.Outputs, diagram.NodeID("c-end"))
	assert.Equal(t, "seed!", result.Outputs["c-end"].Body())
}

func TestEngineConditionSkipsUntakenBranch(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("gate", diagram.NodeTypeCondition, 1),
			node("yes", diagram.NodeTypeCodeJob, 2),
			node("no", diagram.NodeTypeCodeJob, 2),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "gate"),
			{ID: "e2", Source: "gate", Target: "yes", SourceOutput: "condtrue",
				TargetInput: string(diagram.LabelDefault),
				Hints:       diagram.EdgeHints{IsConditionalBranch: true}},
			{ID: "e3", Source: "gate", Target: "no", SourceOutput: "condfalse",
				TargetInput: string(diagram.LabelDefault),
				Hints:       diagram.EdgeHints{IsConditionalBranch: true}},
		},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCondition, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			return map[string]*envelope.Envelope{"condtrue": envelope.Text("taken")}, nil
		}},
		echoHandler(diagram.NodeTypeCodeJob),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Equal(t, []diagram.NodeID{"no"}, result.SkippedNodes,
		"the untaken branch quiesces and is reported skipped")
}

func TestEngineLoopStopsAtMaxIterations(t *testing.T) {
	worker := node("worker", diagram.NodeTypePersonJob, 1)
	worker.Join = diagram.JoinFirstOnly
	worker.Config = &diagram.PersonJobConfig{Person: "p", MaxIteration: 3}
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			worker,
			node("gate", diagram.NodeTypeCondition, 1),
			node("z-end", diagram.NodeTypeEndpoint, 2),
		},
		[]*diagram.ExecutableEdge{
			{ID: "e1", Source: "a-start", Target: "worker",
				SourceOutput: string(diagram.LabelDefault), TargetInput: string(diagram.LabelFirst),
				Hints: diagram.EdgeHints{IsFirstOnly: true}},
			edge("e2", "worker", "gate"),
			{ID: "e3", Source: "gate", Target: "worker", SourceOutput: "condtrue",
				TargetInput: string(diagram.LabelDefault),
				Hints: diagram.EdgeHints{IsConditionalBranch: true, IsLoopBack: true}},
			{ID: "e4", Source: "gate", Target: "z-end", SourceOutput: "condfalse",
				TargetInput: string(diagram.LabelDefault),
				Hints: diagram.EdgeHints{IsConditionalBranch: true}},
		},
	)

	var firings atomic.Int64
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypePersonJob, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			firings.Add(1)
			return defaultOut(envelope.Text("again")), nil
		}},
		&mockHandler{nt: diagram.NodeTypeCondition, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			// Always loop; the iteration budget is the only brake.
			return map[string]*envelope.Envelope{"condtrue": envelope.Text("again")}, nil
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Equal(t, int64(3), firings.Load(), "the budget caps the loop")
	assert.Contains(t, result.SkippedNodes, diagram.NodeID("z-end"),
		"the exit branch never fired")
}

func TestEngineParallelFanOutJoins(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("left", diagram.NodeTypeCodeJob, 1),
			node("right", diagram.NodeTypeCodeJob, 1),
			node("merge", diagram.NodeTypeAPIJob, 2),
			node("z-end", diagram.NodeTypeEndpoint, 3),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "left"),
			edge("e2", "a-start", "right"),
			{ID: "e3", Source: "left", Target: "merge",
				SourceOutput: string(diagram.LabelDefault), TargetInput: "left"},
			{ID: "e4", Source: "right", Target: "merge",
				SourceOutput: string(diagram.LabelDefault), TargetInput: "right"},
			edge("e5", "merge", "z-end"),
		},
	)

	var mu sync.Mutex
	var seen []string
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		echoHandler(diagram.NodeTypeCodeJob),
		&mockHandler{nt: diagram.NodeTypeAPIJob, fn: func(_ context.Context,
			_ *diagram.ExecutableNode, inputs map[string]*envelope.Envelope,
			_ *NodeContext) (map[string]*envelope.Envelope, error) {
			mu.Lock()
			for port := range inputs {
				seen = append(seen, port)
			}
			mu.Unlock()
			return defaultOut(envelope.Text("merged")), nil
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil, WithConcurrency(4))
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	sort.Strings(seen)
	assert.Equal(t, []string{"left", "right"}, seen,
		"the join fires once with both branch inputs")
	assert.Equal(t, "merged", result.Outputs["z-end"].Body())
}

func TestEngineNodeFailureDoesNotStopSiblings(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("bad", diagram.NodeTypeCodeJob, 1),
			node("down", diagram.NodeTypeCodeJob, 2),
			node("good", diagram.NodeTypeEndpoint, 1),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "bad"),
			edge("e2", "a-start", "good"),
			edge("e3", "bad", "down"),
		},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			return nil, errors.New("boom")
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status,
		"a node failure is not fatal to the execution")
	assert.Equal(t, []diagram.NodeID{"bad"}, result.FailedNodes)
	assert.Equal(t, []diagram.NodeID{"down"}, result.SkippedNodes)
	assert.Contains(t, result.Outputs, diagram.NodeID("good"),
		"the sibling branch still completed")
}

func TestEngineErrorPortTurnsFailureIntoData(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("bad", diagram.NodeTypeCodeJob, 1),
			node("catch", diagram.NodeTypeEndpoint, 2),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "bad"),
			{ID: "e2", Source: "bad", Target: "catch",
				SourceOutput: string(diagram.LabelError), TargetInput: string(diagram.LabelDefault)},
		},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			return nil, errors.New("boom")
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Empty(t, result.FailedNodes, "a wired error port absorbs the failure")
	require.Contains(t, result.Outputs, diagram.NodeID("catch"))
	body, ok := result.Outputs["catch"].Body().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boom", body["error"])
	assert.Equal(t, string(CodeHandlerFailed), body["code"])
}

func TestEngineRetriesRetryableFailures(t *testing.T) {
	api := node("api", diagram.NodeTypeAPIJob, 1)
	api.Config = &diagram.APIJobConfig{URL: "http://example.test", MaxRetries: 2}
	d := execDiagram(
		[]*diagram.ExecutableNode{node("a-start", diagram.NodeTypeStart, 0), api},
		[]*diagram.ExecutableEdge{edge("e1", "a-start", "api")},
	)

	var attempts atomic.Int64
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeAPIJob, fn: func(context.Context,
			*diagram.ExecutableNode, map[string]*envelope.Envelope,
			*NodeContext) (map[string]*envelope.Envelope, error) {
			if attempts.Add(1) <= 2 {
				return nil, Retryable(NewError(CodeExternalService, "flaky upstream"))
			}
			return defaultOut(envelope.Text("ok")), nil
		}},
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil, WithRetryInterval(time.Millisecond))
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Empty(t, result.FailedNodes)
	assert.Equal(t, int64(3), attempts.Load(), "two retries then success")
}

func TestEngineHandlerTimeout(t *testing.T) {
	slow := node("slow", diagram.NodeTypeCodeJob, 1)
	slow.Timeout = 30 * time.Millisecond
	d := execDiagram(
		[]*diagram.ExecutableNode{node("a-start", diagram.NodeTypeStart, 0), slow},
		[]*diagram.ExecutableEdge{edge("e1", "a-start", "slow")},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(ctx context.Context,
			_ *diagram.ExecutableNode, _ map[string]*envelope.Envelope,
			_ *NodeContext) (map[string]*envelope.Envelope, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil)
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecCompleted, result.Status)
	assert.Equal(t, []diagram.NodeID{"slow"}, result.FailedNodes)
}

func TestEngineCancellation(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("block", diagram.NodeTypeCodeJob, 1),
			node("z-end", diagram.NodeTypeEndpoint, 2),
		},
		[]*diagram.ExecutableEdge{
			edge("e1", "a-start", "block"),
			edge("e2", "block", "z-end"),
		},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(hctx context.Context,
			_ *diagram.ExecutableNode, _ map[string]*envelope.Envelope,
			_ *NodeContext) (map[string]*envelope.Envelope, error) {
			cancel()
			<-hctx.Done()
			return nil, hctx.Err()
		}},
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()

	eng, err := NewEngine(d, handlers, bus, nil, WithGracePeriod(200*time.Millisecond))
	require.NoError(t, err)
	result, err := eng.Run(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusExecAborted, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, CodeCancelled, result.Err.Code)
	assert.NotContains(t, result.Outputs, diagram.NodeID("z-end"))
}

func TestEngineCancellationReportsInflightNode(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("block", diagram.NodeTypeCodeJob, 1),
		},
		[]*diagram.ExecutableEdge{edge("e1", "a-start", "block")},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		&mockHandler{nt: diagram.NodeTypeCodeJob, fn: func(hctx context.Context,
			_ *diagram.ExecutableNode, _ map[string]*envelope.Envelope,
			_ *NodeContext) (map[string]*envelope.Envelope, error) {
			cancel()
			<-hctx.Done()
			return nil, hctx.Err()
		}},
	)
	bus := event.NewBus()
	defer bus.Close()
	sub := bus.Subscribe("exec-c")
	defer sub.Cancel()

	eng, err := NewEngine(d, handlers, bus, nil,
		WithExecutionID("exec-c"), WithGracePeriod(200*time.Millisecond))
	require.NoError(t, err)
	result, err := eng.Run(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, StatusExecAborted, result.Status)

	// The interrupted node is reported before the terminal event.
	var nodeErrors []*event.Event
	for {
		select {
		case evt := <-sub.Events:
			if evt.Type == event.TypeNodeError {
				nodeErrors = append(nodeErrors, evt)
			}
			if evt.Type == event.TypeExecutionAborted {
				require.Len(t, nodeErrors, 1)
				errEvt := nodeErrors[0]
				assert.Equal(t, diagram.NodeID("block"), errEvt.NodeID)
				assert.Equal(t, string(CodeCancelled), errEvt.Payload[event.KeyErrorCode])
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("terminal event never arrived")
		}
	}
}

func TestEnginePublishesTerminalEvent(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("z-end", diagram.NodeTypeEndpoint, 1),
		},
		[]*diagram.ExecutableEdge{edge("e1", "a-start", "z-end")},
	)
	handlers := registryOf(t,
		textHandler(diagram.NodeTypeStart, "go"),
		echoHandler(diagram.NodeTypeEndpoint),
	)
	bus := event.NewBus()
	defer bus.Close()
	sub := bus.Subscribe("exec-1")
	defer sub.Cancel()

	eng, err := NewEngine(d, handlers, bus, nil, WithExecutionID("exec-1"))
	require.NoError(t, err)
	result, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, StatusExecCompleted, result.Status)

	var got []*event.Event
	for len(got) == 0 || got[len(got)-1].Type != event.TypeExecutionCompleted {
		select {
		case evt := <-sub.Events:
			got = append(got, evt)
		case <-time.After(2 * time.Second):
			t.Fatalf("terminal event never arrived; saw %d events", len(got))
		}
	}
	assert.Equal(t, event.TypeExecutionStarted, got[0].Type)
	last := got[len(got)-1]
	assert.Equal(t, string(StatusExecCompleted), last.Payload[event.KeyStatus])
}

func TestNewEngineRejectsUnhandledNodeType(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{
			node("a-start", diagram.NodeTypeStart, 0),
			node("orphan", diagram.NodeTypeHook, 1),
		},
		[]*diagram.ExecutableEdge{edge("e1", "a-start", "orphan")},
	)
	handlers := registryOf(t, textHandler(diagram.NodeTypeStart, "go"))
	bus := event.NewBus()
	defer bus.Close()

	_, err := NewEngine(d, handlers, bus, nil)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, AsError(err).Code)
}

func TestTrackerTransitions(t *testing.T) {
	d := execDiagram(
		[]*diagram.ExecutableNode{node("n1", diagram.NodeTypeCodeJob, 0)}, nil)
	bus := event.NewBus()
	defer bus.Close()
	tracker := NewTracker("exec-1", bus, d)

	assert.Equal(t, StatusPending, tracker.State("n1").Status)
	assert.Equal(t, []diagram.NodeID{"n1"}, tracker.NodesWithStatus(StatusPending))

	tracker.TransitionToRunning("n1", 0)
	assert.Equal(t, StatusRunning, tracker.State("n1").Status)

	out := envelope.Text("done")
	tracker.TransitionToCompleted("n1", out)
	s := tracker.State("n1")
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 1, s.ExecutionCount)
	assert.Same(t, out, tracker.LastOutput("n1"))

	tracker.TransitionToCompleted("n1", nil)
	assert.Equal(t, 2, tracker.ExecutionCount("n1"))

	tracker.TransitionToFailed("n1", NewError(CodeHandlerFailed, "boom"))
	assert.Equal(t, StatusFailed, tracker.State("n1").Status)
	assert.NotEmpty(t, tracker.State("n1").Error)
}
