//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

import "time"

// JoinPolicy is the readiness predicate over a node's inbound edges.
type JoinPolicy string

const (
	// JoinAll requires one token on every inbound edge.
	JoinAll JoinPolicy = "all"
	// JoinAny requires one token on at least one inbound edge. On firing,
	// pending tokens on the other inbound edges are consumed as well.
	JoinAny JoinPolicy = "any"
	// JoinFirstOnly is the PersonJob mode: the first firing requires a
	// token on a first-input edge, later firings on a default edge.
	JoinFirstOnly JoinPolicy = "first_only"
)

// EdgeHints are flags resolved at compile time that the runtime consults
// without re-deriving them from the domain diagram.
type EdgeHints struct {
	// IsConditionalBranch marks edges leaving a condtrue/condfalse handle.
	IsConditionalBranch bool `json:"is_conditional_branch,omitempty"`
	// IsFirstOnly marks edges entering a PersonJob first input.
	IsFirstOnly bool `json:"is_first_only,omitempty"`
	// IsConversationState marks conversation_state edges, which bypass
	// input gating.
	IsConversationState bool `json:"is_conversation_state,omitempty"`
	// IsLoopBack marks edges whose target does not rank after their
	// source; emitting on one begins a new epoch.
	IsLoopBack bool `json:"is_loop_back,omitempty"`
}

// ExecutableEdge is the compile-time-resolved plan for one arrow.
type ExecutableEdge struct {
	ID           ArrowID         `json:"id"`
	Source       NodeID          `json:"source"`
	Target       NodeID          `json:"target"`
	SourceOutput string          `json:"source_output"`
	TargetInput  string          `json:"target_input"`
	ContentType  ContentType     `json:"content_type,omitempty"`
	Label        string          `json:"label,omitempty"`
	Rules        []TransformRule `json:"transform_rules,omitempty"`
	Hints        EdgeHints       `json:"runtime_hints,omitempty"`
}

// ExecutableNode is a compiled node: typed config plus the scheduling
// attributes derived at compile time.
type ExecutableNode struct {
	ID   NodeID   `json:"id"`
	Type NodeType `json:"type"`
	Name string   `json:"name,omitempty"`
	// Config is the typed node configuration produced by the node factory.
	Config NodeConfig `json:"-"`
	// Join is the node's readiness policy, derived from the node type and
	// overridable via the node data "join_policy" field.
	Join JoinPolicy `json:"join_policy"`
	// Rank is the topological rank used by the scheduler's ordering
	// policy. Cycle members share a rank.
	Rank int `json:"rank"`
	// Timeout bounds one handler invocation. Zero means the node-type
	// default applies.
	Timeout time.Duration `json:"timeout,omitempty"`
	// RequiredInputs lists input ports that must resolve to a value;
	// a missing one fails the firing with INPUT_RESOLUTION_FAILED.
	RequiredInputs []string `json:"required_inputs,omitempty"`
}

// ExecutableDiagram is the immutable compiler output: indexed nodes, edges
// with pre-computed transform rules, adjacency maps and the start-node set.
// Treat all fields as read-only after compilation.
type ExecutableDiagram struct {
	Nodes map[NodeID]*ExecutableNode
	// Order is the canonical node iteration order (sorted IDs).
	Order          []NodeID
	Edges          []*ExecutableEdge
	IncomingByNode map[NodeID][]*ExecutableEdge
	OutgoingByNode map[NodeID][]*ExecutableEdge
	StartNodes     []NodeID
	// Persons carries the LLM participants referenced by person nodes.
	Persons  map[PersonID]DomainPerson
	Metadata Metadata
}

// Person looks up a person by ID.
func (d *ExecutableDiagram) Person(id PersonID) (DomainPerson, bool) {
	p, ok := d.Persons[id]
	return p, ok
}

// Node looks up a node by ID.
func (d *ExecutableDiagram) Node(id NodeID) (*ExecutableNode, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// Incoming returns the inbound edges of a node.
func (d *ExecutableDiagram) Incoming(id NodeID) []*ExecutableEdge {
	return d.IncomingByNode[id]
}

// Outgoing returns the outbound edges of a node.
func (d *ExecutableDiagram) Outgoing(id NodeID) []*ExecutableEdge {
	return d.OutgoingByNode[id]
}

// OutgoingFrom returns the outbound edges leaving the given output port.
func (d *ExecutableDiagram) OutgoingFrom(id NodeID, port string) []*ExecutableEdge {
	var out []*ExecutableEdge
	for _, e := range d.OutgoingByNode[id] {
		if e.SourceOutput == port {
			out = append(out, e)
		}
	}
	return out
}

// IsEndpoint reports whether the node is an endpoint node.
func (d *ExecutableDiagram) IsEndpoint(id NodeID) bool {
	n, ok := d.Nodes[id]
	return ok && n.Type == NodeTypeEndpoint
}
