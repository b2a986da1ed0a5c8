package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"yqhp/pipeline-engine/pkg/types"
)

// YAMLParser implements the Parser interface for YAML pipeline definitions.
type YAMLParser struct{}

// NewYAMLParser creates a new YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse parses a pipeline definition from bytes.
func (p *YAMLParser) Parse(data []byte) (*types.Pipeline, error) {
	var pipeline types.Pipeline

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // 严格模式：未知字段报错

	if err := decoder.Decode(&pipeline); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewParseError(0, 0, "empty pipeline definition", err)
		}
		return nil, p.wrapYAMLError(err)
	}

	if err := p.validate(&pipeline); err != nil {
		return nil, err
	}

	return &pipeline, nil
}

// ParseFile parses a pipeline definition from a file.
func (p *YAMLParser) ParseFile(path string) (*types.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewParseError(0, 0, fmt.Sprintf("failed to read file: %s", path), err)
	}
	pipeline, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	pipeline.Source = path
	return pipeline, nil
}

// wrapYAMLError converts a YAML error to a ParseError with line information.
func (p *YAMLParser) wrapYAMLError(err error) error {
	errStr := err.Error()
	line, column := extractLineColumn(errStr)
	return NewParseError(line, column, cleanYAMLErrorMessage(errStr), err)
}

// extractLineColumn attempts to extract line and column from YAML error message.
func extractLineColumn(errStr string) (int, int) {
	var line, column int

	if idx := strings.Index(errStr, "line "); idx != -1 {
		fmt.Sscanf(errStr[idx:], "line %d", &line)
	}
	if idx := strings.Index(errStr, "column "); idx != -1 {
		fmt.Sscanf(errStr[idx:], "column %d", &column)
	}

	return line, column
}

// cleanYAMLErrorMessage creates a cleaner error message.
func cleanYAMLErrorMessage(errStr string) string {
	errStr = strings.TrimPrefix(errStr, "yaml: ")
	errStr = strings.TrimPrefix(errStr, "unmarshal errors:\n")
	errStr = strings.TrimSpace(errStr)

	if len(errStr) > 0 {
		errStr = strings.ToUpper(errStr[:1]) + errStr[1:]
	}
	return errStr
}

// validate validates a parsed pipeline.
func (p *YAMLParser) validate(pipeline *types.Pipeline) error {
	if len(pipeline.Steps) == 0 {
		return NewValidationError("steps", "pipeline must have at least one step")
	}

	groups := []struct {
		name  types.StepGroup
		steps []types.StepDecl
	}{
		{types.GroupSteps, pipeline.Steps},
		{types.GroupOnSuccess, pipeline.OnSuccess},
		{types.GroupOnFailure, pipeline.OnFailure},
	}
	for _, g := range groups {
		for i := range g.steps {
			if err := p.validateStep(&g.steps[i], fmt.Sprintf("%s[%d]", g.name, i)); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateStep validates a single step declaration.
func (p *YAMLParser) validateStep(s *types.StepDecl, path string) error {
	if strings.TrimSpace(s.Name) == "" {
		return NewValidationError(path+".name", "step name is required")
	}
	if s.Retry != nil {
		if s.Retry.Max < 0 {
			return NewValidationError(path+".retry.max", "must not be negative")
		}
		if s.Retry.Sleep < 0 {
			return NewValidationError(path+".retry.sleep", "must not be negative")
		}
	}
	return nil
}
