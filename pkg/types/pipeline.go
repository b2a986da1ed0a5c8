package types

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline represents a parsed pipeline definition.
type Pipeline struct {
	Name          string     `yaml:"name" json:"name"`
	Description   string     `yaml:"description,omitempty" json:"description,omitempty"`
	ContextParser string     `yaml:"context_parser,omitempty" json:"context_parser,omitempty"`
	Steps         []StepDecl `yaml:"steps" json:"steps"`
	OnSuccess     []StepDecl `yaml:"on_success,omitempty" json:"on_success,omitempty"`
	OnFailure     []StepDecl `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`

	// Source 定义文件路径，解析时填充
	Source string `yaml:"-" json:"-"`
}

// StepDecl is one entry of a step group. In YAML it is either a bare step name or a
// mapping with the fields below.
type StepDecl struct {
	Name    string         `yaml:"name" json:"name"`
	Comment string         `yaml:"comment,omitempty" json:"comment,omitempty"`
	In      map[string]any `yaml:"in,omitempty" json:"in,omitempty"`
	Run     *bool          `yaml:"run,omitempty" json:"run,omitempty"`
	Skip    bool           `yaml:"skip,omitempty" json:"skip,omitempty"`
	Swallow bool           `yaml:"swallow,omitempty" json:"swallow,omitempty"`
	Retry   *Retry         `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// Retry configures repeated attempts of a failing step.
type Retry struct {
	// Max is the number of extra attempts after the first failure.
	Max   int           `yaml:"max" json:"max"`
	Sleep time.Duration `yaml:"sleep,omitempty" json:"sleep,omitempty"`
}

// ShouldRun reports whether the step is enabled.
func (s StepDecl) ShouldRun() bool {
	if s.Skip {
		return false
	}
	return s.Run == nil || *s.Run
}

// Attempts returns the maximum number of times the step runs.
func (s StepDecl) Attempts() int {
	if s.Retry == nil || s.Retry.Max < 0 {
		return 1
	}
	return s.Retry.Max + 1
}

var stepDeclFields = map[string]bool{
	"name": true, "comment": true, "in": true, "run": true,
	"skip": true, "swallow": true, "retry": true,
}

// UnmarshalYAML accepts a bare step name or a step mapping. Unknown fields are rejected.
func (s *StepDecl) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = StepDecl{Name: value.Value}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i]
			if !stepDeclFields[key.Value] {
				return fmt.Errorf("line %d: field %s not found in type types.StepDecl", key.Line, key.Value)
			}
		}
		type plain StepDecl
		var p plain
		if err := value.Decode(&p); err != nil {
			return err
		}
		*s = StepDecl(p)
		return nil
	default:
		return fmt.Errorf("line %d: a step must be a step name or a mapping", value.Line)
	}
}

// StepGroup names a list of steps in a pipeline.
type StepGroup string

const (
	// GroupSteps is the main step list.
	GroupSteps StepGroup = "steps"
	// GroupOnSuccess runs after all steps succeed.
	GroupOnSuccess StepGroup = "on_success"
	// GroupOnFailure runs after a step fails.
	GroupOnFailure StepGroup = "on_failure"
)
