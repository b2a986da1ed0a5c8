package jsscript

import (
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
)

// RegisterPy registers the py step and its jsscript alias.
func RegisterPy(registry *step.Registry, log *logger.Logger) {
	registry.MustRegister(Py(log))
	if err := registry.RegisterAlias("jsscript", "py"); err != nil {
		panic(err)
	}
}
