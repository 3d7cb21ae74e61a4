//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package exec implements the token-driven execution engine. Scheduling
// decisions are made on a single engine goroutine; handler invocations run
// on a bounded worker pool and report back over a completion channel.
package exec

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/event"
	"trpc.group/trpc-go/dipeo/exec/resolve"
	"trpc.group/trpc-go/dipeo/exec/token"
	"trpc.group/trpc-go/dipeo/log"
	"trpc.group/trpc-go/dipeo/service"
	"trpc.group/trpc-go/dipeo/telemetry"
)

// Status is the terminal status of one execution.
type Status string

const (
	// StatusExecCompleted means the execution ran to quiescence.
	StatusExecCompleted Status = "COMPLETED"
	// StatusExecFailed means a fatal error stopped the execution.
	StatusExecFailed Status = "FAILED"
	// StatusExecAborted means the execution was cancelled.
	StatusExecAborted Status = "ABORTED"
)

// Result summarises one finished execution.
type Result struct {
	ExecutionID diagram.ExecutionID
	Status      Status
	// Outputs holds the last envelope each endpoint node produced.
	Outputs map[diagram.NodeID]*envelope.Envelope
	// FailedNodes lists nodes that failed without stopping the execution.
	FailedNodes []diagram.NodeID
	// SkippedNodes lists nodes that never became ready.
	SkippedNodes []diagram.NodeID
	// Err is set for FAILED and ABORTED executions.
	Err *Error
}

// Node-type default timeouts, applied when the node carries none.
var defaultTimeouts = map[diagram.NodeType]time.Duration{
	diagram.NodeTypeStart:        10 * time.Second,
	diagram.NodeTypeEndpoint:     30 * time.Second,
	diagram.NodeTypePersonJob:    5 * time.Minute,
	diagram.NodeTypeCodeJob:      time.Minute,
	diagram.NodeTypeAPIJob:       time.Minute,
	diagram.NodeTypeCondition:    10 * time.Second,
	diagram.NodeTypeDB:           30 * time.Second,
	diagram.NodeTypeTemplateJob:  30 * time.Second,
	diagram.NodeTypeHook:         time.Minute,
	diagram.NodeTypeSubDiagram:   10 * time.Minute,
	diagram.NodeTypeUserResponse: 5 * time.Minute,
}

// Option configures an engine.
type Option func(*Engine)

// WithConcurrency bounds how many handlers run at once. Default 8.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithGracePeriod sets how long cancellation waits for in-flight handlers.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.grace = d
		}
	}
}

// WithExecutionID fixes the execution ID instead of generating one.
func WithExecutionID(id diagram.ExecutionID) Option {
	return func(e *Engine) { e.execID = id }
}

// WithResolver swaps in a resolver with custom transform rules.
func WithResolver(r *resolve.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithRetryInterval sets the initial backoff interval for retryable
// failures. Tests shrink it to keep runs fast.
func WithRetryInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryInterval = d
		}
	}
}

// Engine executes one compiled diagram per Run call. The engine itself is
// reusable; all per-execution state lives in the run.
type Engine struct {
	diagram  *diagram.ExecutableDiagram
	handlers *Registry
	bus      *event.Bus
	services *service.Set
	resolver *resolve.Resolver

	concurrency   int
	grace         time.Duration
	retryInterval time.Duration
	execID        diagram.ExecutionID
}

// NewEngine builds an engine over a compiled diagram. Every node type
// present in the diagram must have a registered handler.
func NewEngine(d *diagram.ExecutableDiagram, handlers *Registry, bus *event.Bus,
	services *service.Set, opts ...Option) (*Engine, error) {
	if d == nil {
		return nil, NewError(CodeValidation, "nil diagram")
	}
	for _, id := range d.Order {
		n := d.Nodes[id]
		if _, ok := handlers.Get(n.Type); !ok {
			return nil, NewError(CodeValidation, "no handler registered for node type %q", n.Type)
		}
	}
	e := &Engine{
		diagram:       d,
		handlers:      handlers,
		bus:           bus,
		services:      services,
		resolver:      resolve.NewResolver(resolve.NewRegistry()),
		concurrency:   8,
		grace:         5 * time.Second,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	handlers.Freeze()
	e.resolver.Registry().Freeze()
	return e, nil
}

// run is the per-execution state owned by the engine goroutine.
type run struct {
	execID   diagram.ExecutionID
	ctx      context.Context
	cancel   context.CancelFunc
	tokens   *token.Manager
	tracker  *Tracker
	vars     *Variables
	convs    *Conversations
	pool     *ants.Pool
	done     chan *completion
	inflight map[diagram.NodeID]struct{}
	failed   map[diagram.NodeID]struct{}
	maxed    map[diagram.NodeID]struct{}
	outputs  map[diagram.NodeID]*envelope.Envelope
	fatal    *Error
}

// completion is a finished handler invocation reported to the engine loop.
type completion struct {
	node    *diagram.ExecutableNode
	outputs map[string]*envelope.Envelope
	err     *Error
}

// Run executes the diagram to a terminal state. Variables seed the
// execution-scoped variable map. Run blocks; cancel via the context.
func (e *Engine) Run(ctx context.Context, variables map[string]any) (*Result, error) {
	execID := e.execID
	if execID == "" {
		execID = diagram.ExecutionID(uuid.NewString())
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, span := telemetry.StartExecutionSpan(runCtx, execID, e.diagram.Metadata.ID)
	defer span.End()

	pool, err := ants.NewPool(e.concurrency)
	if err != nil {
		return nil, NewError(CodeInternal, "worker pool: %v", err)
	}
	defer pool.Release()

	r := &run{
		execID:   execID,
		ctx:      ctx,
		cancel:   cancel,
		tokens:   token.NewManager(e.diagram),
		tracker:  NewTracker(execID, e.bus, e.diagram),
		vars:     NewVariables(variables),
		convs:    NewConversations(),
		pool:     pool,
		done:     make(chan *completion, e.concurrency),
		inflight: make(map[diagram.NodeID]struct{}),
		failed:   make(map[diagram.NodeID]struct{}),
		maxed:    make(map[diagram.NodeID]struct{}),
		outputs:  make(map[diagram.NodeID]*envelope.Envelope),
	}

	e.bus.Publish(event.New(execID, event.TypeExecutionStarted))
	e.seedStartNodes(r)

	result := e.loop(r)
	e.publishTerminal(r, result)
	return result, nil
}

// seedStartNodes fires every start node once with the seed variables as its
// only input. Start nodes have no inbound edges, so the token protocol
// cannot make them ready on its own.
func (e *Engine) seedStartNodes(r *run) {
	for _, id := range e.diagram.StartNodes {
		node := e.diagram.Nodes[id]
		inputs := map[string]*envelope.Envelope{
			string(diagram.LabelDefault): envelope.Object(r.vars.Snapshot(),
				envelope.WithProducer(id)),
		}
		e.dispatch(r, node, inputs)
	}
}

// loop is the scheduling loop. It owns every token and tracker mutation;
// handlers only compute.
func (e *Engine) loop(r *run) *Result {
	for {
		if r.fatal != nil {
			return e.drainAndFinish(r, StatusExecFailed, r.fatal)
		}
		if r.ctx.Err() != nil {
			return e.drainAndFinish(r, StatusExecAborted,
				&Error{Code: CodeCancelled, Message: "execution cancelled"})
		}

		dispatched := e.dispatchReady(r)
		if len(r.inflight) == 0 && dispatched == 0 {
			return e.finishQuiescent(r)
		}

		select {
		case c := <-r.done:
			e.handleCompletion(r, c)
		case <-r.ctx.Done():
			// Top of the loop turns this into the abort path.
		}
	}
}

// dispatchReady dispatches ready nodes until the pool is full or nothing is
// ready. One node is picked per pass so the ordering policy sees the token
// state left by the previous dispatch.
func (e *Engine) dispatchReady(r *run) int {
	dispatched := 0
	for len(r.inflight) < e.concurrency {
		node := e.pickReady(r)
		if node == nil {
			break
		}
		epoch := r.tokens.CurrentEpoch()

		if e.maxIterationsReached(r, node) {
			// Drain the tokens so the loop can quiesce, but never fire.
			r.tokens.ConsumeInbound(node.ID, epoch)
			if _, seen := r.maxed[node.ID]; !seen {
				r.maxed[node.ID] = struct{}{}
				r.tracker.TransitionToMaxIter(node.ID)
			}
			continue
		}

		pending := r.tokens.Peek(node.ID, epoch)
		if pending == nil {
			continue
		}
		inputs, err := e.resolver.Resolve(e.diagram, node, pending, r.tracker.ExecutionCount(node.ID))
		if err != nil {
			r.tokens.ConsumeInbound(node.ID, epoch)
			execErr := &Error{Code: CodeInputResolution, Message: err.Error(), Node: node.ID, Err: err}
			r.tracker.TransitionToFailed(node.ID, execErr)
			r.failed[node.ID] = struct{}{}
			continue
		}
		r.tokens.ConsumeInbound(node.ID, epoch)
		e.dispatch(r, node, inputs)
		dispatched++
	}
	return dispatched
}

// pickReady returns the highest-priority ready node: lowest rank first,
// then fewest completed firings, then lexicographic node ID.
func (e *Engine) pickReady(r *run) *diagram.ExecutableNode {
	epoch := r.tokens.CurrentEpoch()
	var candidates []*diagram.ExecutableNode
	for _, id := range e.diagram.Order {
		if _, busy := r.inflight[id]; busy {
			continue
		}
		if _, failed := r.failed[id]; failed {
			continue
		}
		if !r.tokens.HasNewInputs(id, epoch) {
			continue
		}
		candidates = append(candidates, e.diagram.Nodes[id])
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		ca, cb := r.tracker.ExecutionCount(a.ID), r.tracker.ExecutionCount(b.ID)
		if ca != cb {
			return ca < cb
		}
		return a.ID < b.ID
	})
	return candidates[0]
}

// maxIterationsReached gates PersonJob nodes on their iteration budget.
func (e *Engine) maxIterationsReached(r *run, node *diagram.ExecutableNode) bool {
	cfg, ok := node.Config.(*diagram.PersonJobConfig)
	if !ok || cfg.MaxIteration <= 0 {
		return false
	}
	return r.tracker.ExecutionCount(node.ID) >= cfg.MaxIteration
}

// dispatch hands one firing to the worker pool.
func (e *Engine) dispatch(r *run, node *diagram.ExecutableNode, inputs map[string]*envelope.Envelope) {
	epoch := r.tokens.CurrentEpoch()
	execCount := r.tracker.ExecutionCount(node.ID)
	r.inflight[node.ID] = struct{}{}
	r.tracker.TransitionToRunning(node.ID, epoch)

	nc := &NodeContext{
		ExecutionID:   r.execID,
		Epoch:         epoch,
		ExecCount:     execCount,
		Variables:     r.vars,
		Diagram:       e.diagram,
		Services:      e.services,
		Tracker:       r.tracker,
		Conversations: r.convs,
	}
	submit := func() {
		outputs, err := e.invoke(r, node, inputs, nc)
		r.done <- &completion{node: node, outputs: outputs, err: err}
	}
	if err := r.pool.Submit(submit); err != nil {
		// Pool rejected the task (released during shutdown); report inline.
		r.done <- &completion{node: node,
			err: &Error{Code: CodeInternal, Message: err.Error(), Node: node.ID}}
	}
}

// invoke runs one handler with its timeout and retry policy. Runs on a
// worker goroutine; it must not touch token or tracker state beyond the
// retry notification.
func (e *Engine) invoke(r *run, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *NodeContext) (map[string]*envelope.Envelope, *Error) {
	handler, _ := e.handlers.Get(node.Type)
	timeout := node.Timeout
	if timeout <= 0 {
		timeout = defaultTimeouts[node.Type]
	}

	attempt := 0
	var outputs map[string]*envelope.Envelope
	op := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(r.ctx, timeout)
		defer cancel()
		ctx, span := telemetry.StartNodeSpan(ctx, r.execID, node.ID, node.Type)
		defer span.End()

		out, err := handler.Execute(ctx, node, inputs, nc)
		if err == nil {
			outputs = out
			return nil
		}
		execErr := e.classify(r, node, ctx, err)
		execErr.Attempt = attempt
		telemetry.RecordNodeFailure(ctx, node.Type)
		if execErr.Retryable && attempt <= e.maxRetries(node) {
			r.tracker.RetryAttempt(node.ID, execErr, attempt)
			return execErr
		}
		return backoff.Permanent(execErr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.retryInterval
	err := backoff.Retry(op, backoff.WithContext(bo, r.ctx))
	if err != nil {
		return nil, AsError(err)
	}
	return outputs, nil
}

// classify maps a handler error onto the typed error taxonomy.
func (e *Engine) classify(r *run, node *diagram.ExecutableNode, ctx context.Context, err error) *Error {
	switch {
	case r.ctx.Err() != nil:
		return &Error{Code: CodeCancelled, Message: "execution cancelled", Node: node.ID, Err: err}
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		return &Error{Code: CodeHandlerTimeout,
			Message: "handler exceeded its timeout", Node: node.ID, Err: err}
	default:
		return HandlerFailed(node.ID, err)
	}
}

// maxRetries returns the node's retry budget. Only API jobs retry today.
func (e *Engine) maxRetries(node *diagram.ExecutableNode) int {
	if cfg, ok := node.Config.(*diagram.APIJobConfig); ok {
		return cfg.MaxRetries
	}
	return 0
}

// handleCompletion applies one finished firing to the run. Engine goroutine
// only.
func (e *Engine) handleCompletion(r *run, c *completion) {
	delete(r.inflight, c.node.ID)

	if c.err != nil {
		if c.err.Code == CodeInternal {
			r.fatal = c.err
			r.cancel()
			return
		}
		if c.err.Code == CodeCancelled {
			// Not a node failure: the firing was cut short. Report it so
			// subscribers see which node the abort interrupted.
			r.tracker.TransitionToAborted(c.node.ID, c.err)
			return
		}
		r.tracker.TransitionToFailed(c.node.ID, c.err)
		r.failed[c.node.ID] = struct{}{}
		// A wired error port turns the failure into data.
		if edges := e.diagram.OutgoingFrom(c.node.ID, string(diagram.LabelError)); len(edges) > 0 {
			errOut := map[string]*envelope.Envelope{
				string(diagram.LabelError): envelope.ErrorValue(string(c.err.Code), c.err.Message,
					envelope.WithProducer(c.node.ID)),
			}
			r.tokens.EmitOutputs(c.node.ID, errOut, r.tokens.CurrentEpoch())
			delete(r.failed, c.node.ID)
		}
		return
	}

	var last *envelope.Envelope
	if c.outputs != nil {
		last = c.outputs[string(diagram.LabelDefault)]
		if last == nil {
			for _, env := range c.outputs {
				last = env
				break
			}
		}
	}
	r.tracker.TransitionToCompleted(c.node.ID, last)
	if e.diagram.IsEndpoint(c.node.ID) && last != nil {
		r.outputs[c.node.ID] = last
	}
	if len(c.outputs) > 0 {
		r.tokens.EmitOutputs(c.node.ID, c.outputs, r.tokens.CurrentEpoch())
	}
}

// finishQuiescent ends a run with no ready nodes and nothing in flight.
func (e *Engine) finishQuiescent(r *run) *Result {
	skipped := r.tracker.NodesWithStatus(StatusPending)
	for _, id := range skipped {
		r.tracker.TransitionToSkipped(id, "no tokens arrived before quiescence")
	}
	return &Result{
		ExecutionID:  r.execID,
		Status:       StatusExecCompleted,
		Outputs:      r.outputs,
		FailedNodes:  sortedIDs(r.failed),
		SkippedNodes: skipped,
	}
}

// drainAndFinish waits out in-flight handlers for the grace period, then
// gives up on the stragglers.
func (e *Engine) drainAndFinish(r *run, status Status, execErr *Error) *Result {
	r.cancel()
	deadline := time.NewTimer(e.grace)
	defer deadline.Stop()
	for len(r.inflight) > 0 {
		select {
		case c := <-r.done:
			delete(r.inflight, c.node.ID)
			if c.err != nil && c.err.Code == CodeCancelled {
				r.tracker.TransitionToAborted(c.node.ID, c.err)
			}
		case <-deadline.C:
			for id := range r.inflight {
				log.Warnf("node %s did not stop within the grace period", id)
				r.tracker.TransitionToAborted(id, &Error{Code: CodeCancelled,
					Message: "node did not stop within the grace period", Node: id})
			}
			r.inflight = map[diagram.NodeID]struct{}{}
		}
	}
	return &Result{
		ExecutionID:  r.execID,
		Status:       status,
		Outputs:      r.outputs,
		FailedNodes:  sortedIDs(r.failed),
		SkippedNodes: r.tracker.NodesWithStatus(StatusPending),
		Err:          execErr,
	}
}

// publishTerminal emits exactly one terminal event for the run.
func (e *Engine) publishTerminal(r *run, result *Result) {
	payload := map[string]any{
		event.KeyStatus:       string(result.Status),
		event.KeyFailedNodes:  idStrings(result.FailedNodes),
		event.KeySkippedNodes: idStrings(result.SkippedNodes),
	}
	var t event.Type
	switch result.Status {
	case StatusExecCompleted:
		t = event.TypeExecutionCompleted
	case StatusExecAborted:
		t = event.TypeExecutionAborted
	default:
		t = event.TypeExecutionError
		if result.Err != nil {
			payload[event.KeyError] = result.Err.Message
			payload[event.KeyErrorCode] = string(result.Err.Code)
		}
	}
	e.bus.Publish(event.New(r.execID, t, event.WithPayload(payload)))
}

func sortedIDs(set map[diagram.NodeID]struct{}) []diagram.NodeID {
	out := make([]diagram.NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func idStrings(ids []diagram.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
