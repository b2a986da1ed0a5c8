// Package parser provides pipeline definition parsing and serialization.
package parser

import (
	"io"

	"yqhp/pipeline-engine/pkg/types"
)

// Parser defines the interface for parsing pipeline definitions.
type Parser interface {
	// Parse parses a pipeline definition from bytes.
	Parse(data []byte) (*types.Pipeline, error)

	// ParseFile parses a pipeline definition from a file.
	ParseFile(path string) (*types.Pipeline, error)
}

// Printer defines the interface for serializing pipeline definitions.
type Printer interface {
	// Print serializes a pipeline to bytes.
	Print(pipeline *types.Pipeline) ([]byte, error)

	// Fprint serializes a pipeline to w.
	Fprint(w io.Writer, pipeline *types.Pipeline) error
}
