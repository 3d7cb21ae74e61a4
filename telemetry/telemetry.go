//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package telemetry instruments the runtime with OpenTelemetry traces and
// metrics. Providers are installed by the composition root; with none
// installed the global no-op providers keep the overhead negligible.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/dipeo/diagram"
)

const scopeName = "trpc.group/trpc-go/dipeo"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)

	nodeFirings   metric.Int64Counter
	nodeFailures  metric.Int64Counter
	executionRuns metric.Int64Counter
)

func init() {
	nodeFirings, _ = meter.Int64Counter("dipeo.node.firings",
		metric.WithDescription("Number of node handler invocations."))
	nodeFailures, _ = meter.Int64Counter("dipeo.node.failures",
		metric.WithDescription("Number of failed node firings."))
	executionRuns, _ = meter.Int64Counter("dipeo.execution.runs",
		metric.WithDescription("Number of diagram executions started."))
}

// StartExecutionSpan opens the root span of one execution.
func StartExecutionSpan(ctx context.Context, execID diagram.ExecutionID,
	diagramID diagram.DiagramID) (context.Context, trace.Span) {
	executionRuns.Add(ctx, 1)
	return tracer.Start(ctx, "dipeo.execution",
		trace.WithAttributes(
			attribute.String("dipeo.execution.id", string(execID)),
			attribute.String("dipeo.diagram.id", string(diagramID)),
		))
}

// StartNodeSpan opens a span around one node firing.
func StartNodeSpan(ctx context.Context, execID diagram.ExecutionID,
	node diagram.NodeID, nodeType diagram.NodeType) (context.Context, trace.Span) {
	nodeFirings.Add(ctx, 1,
		metric.WithAttributes(attribute.String("dipeo.node.type", string(nodeType))))
	return tracer.Start(ctx, "dipeo.node.execute",
		trace.WithAttributes(
			attribute.String("dipeo.execution.id", string(execID)),
			attribute.String("dipeo.node.id", string(node)),
			attribute.String("dipeo.node.type", string(nodeType)),
		))
}

// RecordNodeFailure counts a failed firing on the meter.
func RecordNodeFailure(ctx context.Context, nodeType diagram.NodeType) {
	nodeFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("dipeo.node.type", string(nodeType))))
}
