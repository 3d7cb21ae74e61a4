//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

import "sort"

// Metadata carries diagram identity and versioning.
type Metadata struct {
	ID          DiagramID `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// DomainDiagram is the authoring-time diagram value object produced by the
// surface-format parsers and consumed by the compiler. Map insertion order
// is irrelevant; the compiler canonicalises iteration order.
type DomainDiagram struct {
	Nodes    map[NodeID]DomainNode     `json:"nodes" yaml:"nodes"`
	Arrows   map[ArrowID]DomainArrow   `json:"arrows" yaml:"arrows"`
	Handles  map[HandleID]DomainHandle `json:"handles" yaml:"handles"`
	Persons  map[PersonID]DomainPerson `json:"persons,omitempty" yaml:"persons,omitempty"`
	Metadata Metadata                  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// SortedNodeIDs returns the node IDs in lexicographic order. All compiler
// phases iterate nodes in this order so that compilation is deterministic.
func (d *DomainDiagram) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedArrowIDs returns the arrow IDs in lexicographic order.
func (d *DomainDiagram) SortedArrowIDs() []ArrowID {
	ids := make([]ArrowID, 0, len(d.Arrows))
	for id := range d.Arrows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HandlesOf returns the handles attached to a node, sorted by handle ID.
func (d *DomainDiagram) HandlesOf(node NodeID) []DomainHandle {
	var out []DomainHandle
	for _, h := range d.Handles {
		if h.NodeID == node {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handle looks up a handle by ID.
func (d *DomainDiagram) Handle(id HandleID) (DomainHandle, bool) {
	h, ok := d.Handles[id]
	return h, ok
}

// Person looks up a person by ID.
func (d *DomainDiagram) Person(id PersonID) (DomainPerson, bool) {
	p, ok := d.Persons[id]
	return p, ok
}
