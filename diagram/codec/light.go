//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package codec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"trpc.group/trpc-go/dipeo/diagram"
)

// lightDiagram is the YAML authoring shape. Nodes are identified by label;
// connections reference labels with an optional _<handle> suffix. IDs and
// handles are synthesised during conversion.
type lightDiagram struct {
	Metadata    diagram.Metadata                          `yaml:"metadata"`
	Persons     map[diagram.PersonID]diagram.DomainPerson `yaml:"persons"`
	Nodes       []lightNode                               `yaml:"nodes"`
	Connections []lightConnection                         `yaml:"connections"`
}

type lightNode struct {
	Label    string           `yaml:"label"`
	Type     diagram.NodeType `yaml:"type"`
	Position diagram.Position `yaml:"position"`
	Props    map[string]any   `yaml:"props"`
}

type lightConnection struct {
	From        string              `yaml:"from"`
	To          string              `yaml:"to"`
	ContentType diagram.ContentType `yaml:"content_type"`
	Label       string              `yaml:"label"`
}

// DecodeLight parses the light YAML format into a domain diagram.
func DecodeLight(data []byte) (*diagram.DomainDiagram, error) {
	var light lightDiagram
	if err := yaml.Unmarshal(data, &light); err != nil {
		return nil, fmt.Errorf("parse light diagram: %w", err)
	}

	d := &diagram.DomainDiagram{
		Nodes:    make(map[diagram.NodeID]diagram.DomainNode),
		Arrows:   make(map[diagram.ArrowID]diagram.DomainArrow),
		Handles:  make(map[diagram.HandleID]diagram.DomainHandle),
		Persons:  light.Persons,
		Metadata: light.Metadata,
	}

	byLabel := make(map[string]diagram.NodeID, len(light.Nodes))
	for _, n := range light.Nodes {
		if n.Label == "" {
			return nil, fmt.Errorf("light diagram: node without a label")
		}
		id := nodeIDFromLabel(n.Label)
		if _, dup := d.Nodes[id]; dup {
			return nil, fmt.Errorf("light diagram: duplicate node label %q", n.Label)
		}
		byLabel[n.Label] = id
		data := make(map[string]any, len(n.Props)+1)
		for k, v := range n.Props {
			data[k] = v
		}
		data["label"] = n.Label
		d.Nodes[id] = diagram.DomainNode{
			ID:       id,
			Type:     n.Type,
			Position: n.Position,
			Data:     data,
		}
	}

	for i, c := range light.Connections {
		srcNode, srcLabel, err := splitEndpoint(c.From, byLabel, diagram.LabelDefault)
		if err != nil {
			return nil, fmt.Errorf("light diagram: connection %d: %w", i, err)
		}
		dstNode, dstLabel, err := splitEndpoint(c.To, byLabel, diagram.LabelDefault)
		if err != nil {
			return nil, fmt.Errorf("light diagram: connection %d: %w", i, err)
		}

		source := ensureHandle(d, srcNode, srcLabel, diagram.DirectionOutput)
		target := ensureHandle(d, dstNode, dstLabel, diagram.DirectionInput)
		arrowID := diagram.ArrowID(fmt.Sprintf("arrow_%03d", i))
		d.Arrows[arrowID] = diagram.DomainArrow{
			ID:          arrowID,
			Source:      source,
			Target:      target,
			ContentType: c.ContentType,
			Label:       c.Label,
		}
	}

	// Every node gets a default handle pair so arrows added later and the
	// structural checks have something to bind to.
	for id, n := range d.Nodes {
		if n.Type != diagram.NodeTypeStart {
			ensureHandle(d, id, diagram.LabelDefault, diagram.DirectionInput)
		}
		if n.Type != diagram.NodeTypeEndpoint {
			ensureHandle(d, id, diagram.LabelDefault, diagram.DirectionOutput)
		}
	}
	return d, nil
}

// nodeIDFromLabel derives a stable node ID from an authoring label.
func nodeIDFromLabel(label string) diagram.NodeID {
	id := strings.ToLower(label)
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, id)
	return diagram.NodeID(strings.Trim(id, "-"))
}

// splitEndpoint resolves "Label" or "Label_handle" into a node and handle
// label. The handle suffix must be one of the well-known labels; everything
// else is part of the node label.
func splitEndpoint(ref string, byLabel map[string]diagram.NodeID,
	fallback diagram.HandleLabel) (diagram.NodeID, diagram.HandleLabel, error) {
	if id, ok := byLabel[ref]; ok {
		return id, fallback, nil
	}
	if i := strings.LastIndex(ref, "_"); i > 0 {
		nodeLabel, handle := ref[:i], diagram.HandleLabel(ref[i+1:])
		if id, ok := byLabel[nodeLabel]; ok && wellKnownLabel(handle) {
			return id, handle, nil
		}
	}
	return "", "", fmt.Errorf("unknown node reference %q", ref)
}

func wellKnownLabel(l diagram.HandleLabel) bool {
	switch l {
	case diagram.LabelDefault, diagram.LabelFirst, diagram.LabelCondTrue,
		diagram.LabelCondFalse, diagram.LabelSuccess, diagram.LabelError,
		diagram.LabelResults:
		return true
	}
	return false
}

// ensureHandle registers a handle if absent and returns its ID.
func ensureHandle(d *diagram.DomainDiagram, node diagram.NodeID,
	label diagram.HandleLabel, direction diagram.HandleDirection) diagram.HandleID {
	id := diagram.NewHandleID(node, label, direction)
	if _, ok := d.Handles[id]; !ok {
		d.Handles[id] = diagram.DomainHandle{
			ID:        id,
			NodeID:    node,
			Label:     label,
			Direction: direction,
			DataType:  diagram.DataTypeAny,
		}
	}
	return id
}
