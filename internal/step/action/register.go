package action

import (
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
)

// RegisterAllActions registers all action steps.
func RegisterAllActions(registry *step.Registry, log *logger.Logger) {
	RegisterEcho(registry, log)
	RegisterContextSet(registry)
	RegisterDefault(registry)
	RegisterWait(registry, log)
	RegisterJSONPath(registry)
}
