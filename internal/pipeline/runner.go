// Package pipeline loads pipeline definitions and runs their step groups against a
// shared context.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/internal/contextparser"
	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
	"yqhp/pipeline-engine/pkg/types"
)

// Runner executes pipelines with steps from a registry.
type Runner struct {
	registry      *step.Registry
	loader        *Loader
	log           *logger.Logger
	defaultParser string
}

// NewRunner creates a new Runner.
func NewRunner(registry *step.Registry, loader *Loader, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{
		registry: registry,
		loader:   loader,
		log:      log.Named("pipeline"),
	}
}

// WithDefaultParser sets the context parser used when neither the caller nor the
// pipeline names one.
func (r *Runner) WithDefaultParser(name string) *Runner {
	r.defaultParser = name
	return r
}

// Registry returns the step registry.
func (r *Runner) Registry() *step.Registry {
	return r.registry
}

// Loader returns the definition loader.
func (r *Runner) Loader() *Loader {
	return r.loader
}

// RunNamed loads the named pipeline, builds its context from contextArg and runs it.
func (r *Runner) RunNamed(ctx context.Context, name, contextArg, parserName string) (*types.RunResult, error) {
	return r.RunNamedWithContext(ctx, name, contextArg, parserName, nil)
}

// RunNamedWithContext is RunNamed with extra initial entries merged over the parsed ones.
func (r *Runner) RunNamedWithContext(ctx context.Context, name, contextArg, parserName string, initial map[string]any) (*types.RunResult, error) {
	p, err := r.loader.Load(name)
	if err != nil {
		return nil, err
	}

	if parserName == "" {
		parserName = p.ContextParser
	}
	if parserName == "" {
		parserName = r.defaultParser
	}

	vals, err := contextparser.Parse(parserName, contextArg)
	if err != nil {
		return nil, err
	}

	pctx := pipecontext.NewFromMap(vals)
	if len(initial) > 0 {
		pctx.Update(initial)
	}
	return r.Run(ctx, p, pctx)
}

// Run executes the steps group, then on_success. Any failure runs on_failure and the
// original error is returned. The result is returned in both cases.
func (r *Runner) Run(ctx context.Context, p *types.Pipeline, pctx *pipecontext.Context) (*types.RunResult, error) {
	if pctx == nil {
		pctx = pipecontext.New()
	}

	result := &types.RunResult{
		RunID:     uuid.NewString(),
		Pipeline:  p.Name,
		Status:    types.RunStatusSuccess,
		StartTime: time.Now(),
		Records:   make([]types.StepRecord, 0, len(p.Steps)),
	}
	log := r.log.With(zap.String("pipeline", p.Name), zap.String("run_id", result.RunID))
	log.Info("pipeline started")

	err := r.runGroup(ctx, log, types.GroupSteps, p.Steps, pctx, result)
	if err == nil {
		err = r.runGroup(ctx, log, types.GroupOnSuccess, p.OnSuccess, pctx, result)
	}

	if err != nil {
		log.Error("pipeline failed", zap.Error(err))
		if len(p.OnFailure) > 0 {
			// on_failure 自身的错误只记录，返回原始错误
			if ferr := r.runGroup(ctx, log, types.GroupOnFailure, p.OnFailure, pctx, result); ferr != nil {
				log.Error("on_failure group failed", zap.Error(ferr))
			}
		}
		result.Status = types.RunStatusFailed
		result.Error = err.Error()
	}

	result.Context = pctx.ToMap()
	result.Finish()
	log.Info("pipeline done", zap.String("status", string(result.Status)), zap.Duration("duration", result.Duration))

	return result, err
}

func (r *Runner) runGroup(ctx context.Context, log *logger.Logger, group types.StepGroup, steps []types.StepDecl, pctx *pipecontext.Context, result *types.RunResult) error {
	for i := range steps {
		decl := &steps[i]

		if err := ctx.Err(); err != nil {
			return err
		}

		rec := types.StepRecord{Group: group, Index: i, Name: decl.Name}
		stepLog := log.With(zap.String("group", string(group)), zap.Int("index", i), zap.String("step", decl.Name))

		if !decl.ShouldRun() {
			rec.Status = types.RunStatusSkipped
			result.Records = append(result.Records, rec)
			stepLog.Info("step skipped")
			continue
		}

		if len(decl.In) > 0 {
			pctx.Update(decl.In)
		}

		s, err := r.registry.Get(decl.Name)
		if err != nil {
			rec.Status = types.RunStatusFailed
			rec.Error = err.Error()
			result.Records = append(result.Records, rec)
			return err
		}

		start := time.Now()
		attempts, err := r.runWithRetry(ctx, stepLog, s, decl, pctx)
		rec.Attempts = attempts
		rec.Duration = time.Since(start)

		if err != nil {
			rec.Error = err.Error()
			if decl.Swallow {
				rec.Status = types.RunStatusSwallowed
				result.Records = append(result.Records, rec)
				stepLog.Error("step failed, error swallowed", zap.Error(err))
				continue
			}
			rec.Status = types.RunStatusFailed
			result.Records = append(result.Records, rec)
			return step.NewFailedError(decl.Name, err)
		}

		rec.Status = types.RunStatusSuccess
		result.Records = append(result.Records, rec)
	}
	return nil
}

// runWithRetry 执行步骤，失败时按 retry 配置重试
func (r *Runner) runWithRetry(ctx context.Context, log *logger.Logger, s step.Step, decl *types.StepDecl, pctx *pipecontext.Context) (int, error) {
	maxAttempts := decl.Attempts()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Debug("running step", zap.Int("attempt", attempt))

		if err = s.Run(ctx, pctx); err == nil {
			return attempt, nil
		}

		if attempt < maxAttempts {
			log.Warn("step failed, retrying", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if werr := sleep(ctx, decl.Retry.Sleep); werr != nil {
				return attempt, werr
			}
		}
	}
	return maxAttempts, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
