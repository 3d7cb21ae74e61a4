//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// HandleDirection indicates whether a handle accepts or produces data.
type HandleDirection string

const (
	// DirectionInput marks a handle that accepts data.
	DirectionInput HandleDirection = "input"
	// DirectionOutput marks a handle that produces data.
	DirectionOutput HandleDirection = "output"
)

// HandleLabel names a slot on a node. Labels are free-form but the runtime
// assigns meaning to the well-known ones below.
type HandleLabel string

const (
	// LabelDefault is the default input or output slot.
	LabelDefault HandleLabel = "default"
	// LabelFirst is the PersonJob first-iteration input slot.
	LabelFirst HandleLabel = "first"
	// LabelCondTrue is the condition node's true branch output.
	LabelCondTrue HandleLabel = "condtrue"
	// LabelCondFalse is the condition node's false branch output.
	LabelCondFalse HandleLabel = "condfalse"
	// LabelSuccess is the success output of job nodes.
	LabelSuccess HandleLabel = "success"
	// LabelError is the error branch output.
	LabelError HandleLabel = "error"
	// LabelResults is the tool-results output of PersonJob nodes.
	LabelResults HandleLabel = "results"
)

// DataType constrains the values a handle accepts or produces.
// DataTypeAny is the wildcard compatible with everything.
type DataType string

const (
	// DataTypeAny matches any value.
	DataTypeAny DataType = "any"
	// DataTypeString matches string values.
	DataTypeString DataType = "string"
	// DataTypeNumber matches numeric values.
	DataTypeNumber DataType = "number"
	// DataTypeBoolean matches boolean values.
	DataTypeBoolean DataType = "boolean"
	// DataTypeObject matches object values.
	DataTypeObject DataType = "object"
	// DataTypeArray matches array values.
	DataTypeArray DataType = "array"
)

// Compatible reports whether a value of type src may flow into a slot of
// type dst. DataTypeAny on either side is the wildcard.
func Compatible(src, dst DataType) bool {
	if src == DataTypeAny || dst == DataTypeAny {
		return true
	}
	return src == dst
}

// DomainHandle is a named, typed input or output slot on a node.
type DomainHandle struct {
	ID        HandleID        `json:"id" yaml:"id"`
	NodeID    NodeID          `json:"node_id" yaml:"node_id"`
	Label     HandleLabel     `json:"label" yaml:"label"`
	Direction HandleDirection `json:"direction" yaml:"direction"`
	DataType  DataType        `json:"data_type" yaml:"data_type"`
	Position  Position        `json:"position,omitempty" yaml:"position,omitempty"`
}
