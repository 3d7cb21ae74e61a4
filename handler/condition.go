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

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/envelope"
	"trpc.group/trpc-go/dipeo/exec"
)

// conditionHandler routes its input to exactly one of the condtrue and
// condfalse ports. Both ports never fire in the same invocation.
type conditionHandler struct{}

func (h *conditionHandler) NodeType() diagram.NodeType { return diagram.NodeTypeCondition }

func (h *conditionHandler) Execute(ctx context.Context, node *diagram.ExecutableNode,
	inputs map[string]*envelope.Envelope, nc *exec.NodeContext) (map[string]*envelope.Envelope, error) {
	cfg, err := configAs[*diagram.ConditionConfig](node)
	if err != nil {
		return nil, err
	}

	var outcome bool
	switch cfg.ConditionType {
	case diagram.ConditionDetectMaxIterations:
		// Keeps looping until this node has fired MaxIterations times,
		// then takes the false branch for every later firing.
		outcome = nc.ExecCount+1 < cfg.MaxIterations

	case diagram.ConditionCheckNodesExecuted:
		outcome = true
		for _, id := range cfg.NodeIDs {
			if nc.Tracker.ExecutionCount(id) == 0 {
				outcome = false
				break
			}
		}

	case diagram.ConditionCustom:
		value, err := evalExpr(cfg.Expression, nc.Variables.Snapshot(), inputValues(inputs))
		if err != nil {
			return nil, exec.NewError(exec.CodeHandlerFailed, "condition: %v", err)
		}
		outcome = truthy(value)

	default:
		return nil, exec.NewError(exec.CodeValidation,
			"unsupported condition type %q", cfg.ConditionType)
	}

	branch := string(diagram.LabelCondFalse)
	if outcome {
		branch = string(diagram.LabelCondTrue)
	}
	out := firstInput(inputs)
	if out == nil {
		out = envelope.Object(map[string]any{"result": outcome},
			envelope.WithProducer(node.ID))
	}
	return map[string]*envelope.Envelope{branch: out}, nil
}

// truthy converts an expression result to a branch decision.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case string:
		return t != ""
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
