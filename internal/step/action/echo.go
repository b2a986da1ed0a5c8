// Package action provides the built-in utility steps of the pipeline engine.
package action

import (
	"context"
	"fmt"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
)

// Echo creates the echo step. It writes context['echoMe'] to the log at NOTIFY.
func Echo(log *logger.Logger) step.Step {
	if log == nil {
		log = logger.NewNop()
	}
	return &echoStep{
		BaseStep: step.NewBaseStep("echo", "Logs context['echoMe'] at NOTIFY level"),
		log:      log.Named("steps.echo"),
	}
}

type echoStep struct {
	step.BaseStep
	log *logger.Logger
}

func (s *echoStep) Run(_ context.Context, pctx *pipecontext.Context) error {
	if err := pctx.AssertKeyExists("echoMe", s.Caller()); err != nil {
		return err
	}

	val := pctx.Value("echoMe")
	if str, ok := val.(string); ok {
		s.log.Notify(str)
	} else {
		s.log.Notify(fmt.Sprintf("%v", val))
	}
	return nil
}

// RegisterEcho registers the echo step.
func RegisterEcho(registry *step.Registry, log *logger.Logger) {
	registry.MustRegister(Echo(log))
}
