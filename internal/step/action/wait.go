package action

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
)

// Wait creates the wait step. context['waitFor'] is a duration string ("1.5s") or a
// number of milliseconds.
func Wait(log *logger.Logger) step.Step {
	if log == nil {
		log = logger.NewNop()
	}
	return &waitStep{
		BaseStep: step.NewBaseStep("wait", "Waits for a specified duration"),
		log:      log.Named("steps.wait"),
	}
}

type waitStep struct {
	step.BaseStep
	log *logger.Logger
}

func (s *waitStep) Run(ctx context.Context, pctx *pipecontext.Context) error {
	if err := pctx.AssertKeyExists("waitFor", s.Caller()); err != nil {
		return err
	}
	d, err := toDuration(pctx.Value("waitFor"))
	if err != nil {
		return step.NewInvalidParamError(s.Caller(), "waitFor", err.Error())
	}

	s.log.Info("waiting", zap.Duration("duration", d))

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// toDuration converts a duration string or a millisecond count.
func toDuration(v any) (time.Duration, error) {
	var d time.Duration
	switch n := v.(type) {
	case string:
		parsed, err := time.ParseDuration(n)
		if err != nil {
			return 0, err
		}
		d = parsed
	case int:
		d = time.Duration(n) * time.Millisecond
	case int32:
		d = time.Duration(n) * time.Millisecond
	case int64:
		d = time.Duration(n) * time.Millisecond
	case uint64:
		d = time.Duration(n) * time.Millisecond
	case float64:
		d = time.Duration(n * float64(time.Millisecond))
	case float32:
		d = time.Duration(float64(n) * float64(time.Millisecond))
	default:
		return 0, fmt.Errorf("must be a duration string or milliseconds, got %T", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", d)
	}
	return d, nil
}

// RegisterWait registers the wait step.
func RegisterWait(registry *step.Registry, log *logger.Logger) {
	registry.MustRegister(Wait(log))
}
