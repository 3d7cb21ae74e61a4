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
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/dipeo/diagram"
)

// DecodeNative parses the canonical JSON projection of a domain diagram.
func DecodeNative(data []byte) (*diagram.DomainDiagram, error) {
	var d diagram.DomainDiagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse native diagram: %w", err)
	}
	if d.Nodes == nil {
		d.Nodes = make(map[diagram.NodeID]diagram.DomainNode)
	}
	if d.Arrows == nil {
		d.Arrows = make(map[diagram.ArrowID]diagram.DomainArrow)
	}
	if d.Handles == nil {
		d.Handles = make(map[diagram.HandleID]diagram.DomainHandle)
	}
	return &d, nil
}

// EncodeNative serialises a domain diagram to the canonical JSON form.
func EncodeNative(d *diagram.DomainDiagram) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode native diagram: %w", err)
	}
	return data, nil
}
