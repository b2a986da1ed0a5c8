// Package stepinit provides unified step registration for the pipeline engine.
package stepinit

import (
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/internal/step/action"
	"yqhp/pipeline-engine/internal/step/jsscript"
	"yqhp/pipeline-engine/pkg/logger"
)

// RegisterAllSteps registers all built-in steps to the given registry.
func RegisterAllSteps(registry *step.Registry, log *logger.Logger) {
	// Register action steps
	action.RegisterAllActions(registry, log)

	// Register script step
	jsscript.RegisterPy(registry, log)
}

// NewRegistry returns a registry holding every built-in step.
func NewRegistry(log *logger.Logger) *step.Registry {
	registry := step.NewRegistry()
	RegisterAllSteps(registry, log)
	return registry
}
