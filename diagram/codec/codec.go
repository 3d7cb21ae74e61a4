//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package codec parses and serialises diagrams. Two surface formats are
// supported: the native format, a direct JSON projection of the domain
// diagram, and the light format, a hand-authorable YAML shape that names
// nodes by label and synthesises IDs and handles.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"trpc.group/trpc-go/dipeo/diagram"
)

// Format names a diagram surface format.
type Format string

const (
	// FormatNative is the canonical JSON projection.
	FormatNative Format = "native"
	// FormatLight is the label-oriented YAML authoring format.
	FormatLight Format = "light"
)

// DetectFormat guesses the format from a file name.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatLight
	default:
		return FormatNative
	}
}

// Decode parses diagram data in the given format.
func Decode(data []byte, format Format) (*diagram.DomainDiagram, error) {
	switch format {
	case FormatNative:
		return DecodeNative(data)
	case FormatLight:
		return DecodeLight(data)
	default:
		return nil, fmt.Errorf("unknown diagram format %q", format)
	}
}
