// Package step provides the step framework for the pipeline engine.
// Steps are named units of work that read and mutate the shared pipeline context.
package step

import (
	"context"
	"fmt"

	"yqhp/pipeline-engine/internal/pipecontext"
)

// Step defines the interface for all pipeline steps.
type Step interface {
	// Name returns the step name used in pipeline definitions.
	Name() string

	// Description returns a human-readable description of the step.
	Description() string

	// Run executes the step against the shared context.
	// All observable effects are mutations of pctx or the returned error.
	Run(ctx context.Context, pctx *pipecontext.Context) error
}

// BaseStep provides common functionality for steps.
type BaseStep struct {
	name        string
	description string
}

// NewBaseStep creates a new base step.
func NewBaseStep(name, description string) BaseStep {
	return BaseStep{
		name:        name,
		description: description,
	}
}

// Name returns the step name.
func (b BaseStep) Name() string {
	return b.name
}

// Description returns the step description.
func (b BaseStep) Description() string {
	return b.description
}

// Caller returns the identifier steps pass to context assertions.
func (b BaseStep) Caller() string {
	return "steps." + b.name
}

// Func adapts a plain function to the Step interface.
type Func struct {
	BaseStep
	fn func(ctx context.Context, pctx *pipecontext.Context) error
}

// NewFunc creates a step that runs fn.
func NewFunc(name, description string, fn func(ctx context.Context, pctx *pipecontext.Context) error) *Func {
	return &Func{BaseStep: NewBaseStep(name, description), fn: fn}
}

// Run calls the wrapped function.
func (f *Func) Run(ctx context.Context, pctx *pipecontext.Context) error {
	return f.fn(ctx, pctx)
}

// RequiredParam extracts a required, non-empty value of type T from the context.
func RequiredParam[T any](pctx *pipecontext.Context, key, caller string) (T, error) {
	var zero T
	if err := pctx.AssertKeyHasValue(key, caller); err != nil {
		return zero, err
	}
	val, _ := pctx.Get(key)
	typed, ok := val.(T)
	if !ok {
		return zero, NewInvalidParamError(caller, key, fmt.Sprintf("expected %T, got %T", zero, val))
	}
	return typed, nil
}

// OptionalParam extracts an optional value of type T from the context with a default.
func OptionalParam[T any](pctx *pipecontext.Context, key string, defaultVal T) T {
	val, ok := pctx.Get(key)
	if !ok {
		return defaultVal
	}
	typed, ok := val.(T)
	if !ok {
		return defaultVal
	}
	return typed
}
