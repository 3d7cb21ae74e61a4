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
	"encoding/json"
	"fmt"
	"time"

	"trpc.group/trpc-go/dipeo/diagram"
)

// runNodeFactory materialises each node's typed configuration from its data
// dictionary, applying per-type defaults and validating required fields.
// This is the single boundary where untyped node data becomes typed config.
func (c *Compiler) runNodeFactory(comp *compilation) {
	in := comp.in
	res := comp.result

	for _, id := range in.SortedNodeIDs() {
		node := in.Nodes[id]
		cfg, err := c.buildConfig(comp, node)
		if err != nil {
			res.nodeErrorf(PhaseNodeFactory, CodeBadNodeConfig, id, "%v", err)
			continue
		}
		exec := &diagram.ExecutableNode{
			ID:     id,
			Type:   node.Type,
			Config: cfg,
			Join:   joinPolicyFor(node),
		}
		if name, ok := node.Data["label"].(string); ok {
			exec.Name = name
		}
		if secs, ok := asFloat(node.Data["timeout"]); ok && secs > 0 {
			exec.Timeout = time.Duration(secs * float64(time.Second))
		}
		if raw, ok := node.Data["required_inputs"].([]any); ok {
			for _, v := range raw {
				if s, ok := v.(string); ok {
					exec.RequiredInputs = append(exec.RequiredInputs, s)
				}
			}
		}
		comp.nodes[id] = exec
	}
}

// joinPolicyFor derives the node's join policy from its type, honoring an
// explicit "join_policy" override in the node data.
func joinPolicyFor(node diagram.DomainNode) diagram.JoinPolicy {
	if v, ok := node.Data["join_policy"].(string); ok {
		switch diagram.JoinPolicy(v) {
		case diagram.JoinAll, diagram.JoinAny, diagram.JoinFirstOnly:
			return diagram.JoinPolicy(v)
		}
	}
	if node.Type == diagram.NodeTypePersonJob {
		return diagram.JoinFirstOnly
	}
	return diagram.JoinAll
}

func (c *Compiler) buildConfig(comp *compilation, node diagram.DomainNode) (diagram.NodeConfig, error) {
	switch node.Type {
	case diagram.NodeTypeStart:
		cfg, err := decodeConfig[diagram.StartConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Trigger == "" {
			cfg.Trigger = diagram.TriggerManual
		}
		return cfg, nil

	case diagram.NodeTypeEndpoint:
		cfg, err := decodeConfig[diagram.EndpointConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.SaveToFile && cfg.FilePath == "" {
			return nil, fmt.Errorf("save_to_file requires file_path")
		}
		return cfg, nil

	case diagram.NodeTypePersonJob:
		cfg, err := decodeConfig[diagram.PersonJobConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Person == "" {
			return nil, fmt.Errorf("person is required")
		}
		if _, ok := comp.in.Person(cfg.Person); !ok {
			return nil, fmt.Errorf("person %q is not defined in the diagram", cfg.Person)
		}
		if cfg.MaxIteration <= 0 {
			cfg.MaxIteration = 1
		}
		return cfg, nil

	case diagram.NodeTypeCodeJob:
		cfg, err := decodeConfig[diagram.CodeJobConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Code == "" {
			return nil, fmt.Errorf("code is required")
		}
		if cfg.Language == "" {
			cfg.Language = diagram.CodeLanguageExpr
		}
		return cfg, nil

	case diagram.NodeTypeAPIJob:
		cfg, err := decodeConfig[diagram.APIJobConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("url is required")
		}
		if cfg.Method == "" {
			cfg.Method = "GET"
		}
		return cfg, nil

	case diagram.NodeTypeCondition:
		cfg, err := decodeConfig[diagram.ConditionConfig](node.Data)
		if err != nil {
			return nil, err
		}
		switch cfg.ConditionType {
		case diagram.ConditionDetectMaxIterations:
			if cfg.MaxIterations <= 0 {
				return nil, fmt.Errorf("detect_max_iterations requires max_iterations > 0")
			}
		case diagram.ConditionCheckNodesExecuted:
			if len(cfg.NodeIDs) == 0 {
				return nil, fmt.Errorf("check_nodes_executed requires node_ids")
			}
		case diagram.ConditionCustom:
			if cfg.Expression == "" {
				return nil, fmt.Errorf("custom condition requires an expression")
			}
		default:
			return nil, fmt.Errorf("unknown condition type %q", cfg.ConditionType)
		}
		return cfg, nil

	case diagram.NodeTypeDB:
		cfg, err := decodeConfig[diagram.DBConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		switch cfg.Operation {
		case diagram.DBOperationRead, diagram.DBOperationWrite, diagram.DBOperationAppend:
		default:
			return nil, fmt.Errorf("unknown db operation %q", cfg.Operation)
		}
		return cfg, nil

	case diagram.NodeTypeTemplateJob:
		cfg, err := decodeConfig[diagram.TemplateJobConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Template == "" {
			return nil, fmt.Errorf("template is required")
		}
		return cfg, nil

	case diagram.NodeTypeHook:
		cfg, err := decodeConfig[diagram.HookConfig](node.Data)
		if err != nil {
			return nil, err
		}
		switch cfg.Kind {
		case diagram.HookShell:
			if cfg.Command == "" {
				return nil, fmt.Errorf("shell hook requires a command")
			}
		case diagram.HookWebhook:
			if cfg.URL == "" {
				return nil, fmt.Errorf("webhook hook requires a url")
			}
		default:
			return nil, fmt.Errorf("unknown hook type %q", cfg.Kind)
		}
		return cfg, nil

	case diagram.NodeTypeSubDiagram:
		cfg, err := decodeConfig[diagram.SubDiagramConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Diagram == "" {
			return nil, fmt.Errorf("diagram_id is required")
		}
		return cfg, nil

	case diagram.NodeTypeUserResponse:
		cfg, err := decodeConfig[diagram.UserResponseConfig](node.Data)
		if err != nil {
			return nil, err
		}
		if cfg.Prompt == "" {
			return nil, fmt.Errorf("prompt is required")
		}
		return cfg, nil
	}
	return nil, fmt.Errorf("unknown node type %q", node.Type)
}

// decodeConfig converts a node data dictionary into a typed config via a
// JSON round trip. Unknown keys are ignored; they belong to the editor.
func decodeConfig[T any](data map[string]any) (*T, error) {
	cfg := new(T)
	if len(data) == 0 {
		return cfg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode node data: %w", err)
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode node data: %w", err)
	}
	return cfg, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
