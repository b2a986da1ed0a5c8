package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest/observer"

	"yqhp/pipeline-engine/internal/contextparser"
	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/internal/step/stepinit"
	"yqhp/pipeline-engine/pkg/logger"
	"yqhp/pipeline-engine/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writePipeline(t *testing.T, dir, file, content string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRunner(t *testing.T, dir string, extra ...step.Step) *Runner {
	t.Helper()
	registry := stepinit.NewRegistry(logger.NewNop())
	for _, s := range extra {
		registry.MustRegister(s)
	}
	return NewRunner(registry, NewLoader(dir), logger.NewNop())
}

func appendStep(name, key string) step.Step {
	return step.NewFunc(name, "appends its name to a list", func(_ context.Context, pctx *pipecontext.Context) error {
		list, _ := pctx.Value(key).([]string)
		pctx.Set(key, append(list, name))
		return nil
	})
}

func failingStep(name string, failures *int, failTimes int) step.Step {
	return step.NewFunc(name, "fails a number of times", func(_ context.Context, pctx *pipecontext.Context) error {
		*failures++
		if *failures <= failTimes {
			return errors.New("boom")
		}
		return nil
	})
}

func TestLoader_Resolve(t *testing.T) {
	dir := t.TempDir()
	yamlPath := writePipeline(t, dir, "one.yaml", "steps: [echo]")
	ymlPath := writePipeline(t, dir, "two.yml", "steps: [echo]")

	l := NewLoader(dir)

	got, err := l.Resolve("one")
	require.NoError(t, err)
	assert.Equal(t, yamlPath, got)

	got, err = l.Resolve("two")
	require.NoError(t, err)
	assert.Equal(t, ymlPath, got)

	got, err = l.Resolve(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, yamlPath, got)

	got, err = l.Resolve("two.yml")
	require.NoError(t, err)
	assert.Equal(t, ymlPath, got)

	_, err = l.Resolve("three")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "pipeline 'three' not found")

	_, err = l.Resolve("")
	assert.True(t, IsNotFoundError(err))
}

func TestLoader_LoadNamesFromFile(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, "unnamed.yaml", "steps: [echo]")
	writePipeline(t, dir, "named.yaml", "name: custom\nsteps: [echo]")
	writePipeline(t, dir, "broken.yaml", "steps: [")

	l := NewLoader(dir)

	p, err := l.Load("unnamed")
	require.NoError(t, err)
	assert.Equal(t, "unnamed", p.Name)
	assert.Equal(t, filepath.Join(dir, "unnamed.yaml"), p.Source)

	p, err = l.Load("named")
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)

	_, err = l.Load("broken")
	require.Error(t, err)
	assert.False(t, IsNotFoundError(err))
}

func TestRun_StepsAndOnSuccess(t *testing.T) {
	r := newTestRunner(t, t.TempDir(), appendStep("first", "order"), appendStep("second", "order"), appendStep("done", "order"))

	p := &types.Pipeline{
		Name:      "demo",
		Steps:     []types.StepDecl{{Name: "first"}, {Name: "second"}},
		OnSuccess: []types.StepDecl{{Name: "done"}},
		OnFailure: []types.StepDecl{{Name: "never"}},
	}

	result, err := r.Run(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, types.RunStatusSuccess, result.Status)
	assert.Equal(t, "demo", result.Pipeline)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"first", "second", "done"}, result.Context["order"])
	require.Len(t, result.Records, 3)
	assert.Equal(t, types.GroupOnSuccess, result.Records[2].Group)
	assert.Equal(t, 1, result.Records[0].Attempts)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestRun_InMergesIntoContext(t *testing.T) {
	r := newTestRunner(t, t.TempDir())

	p := &types.Pipeline{
		Name: "in",
		Steps: []types.StepDecl{
			{Name: "py", In: map[string]any{"py": "b = a * 2; save('b')"}},
			{Name: "py", In: map[string]any{"pycode": "context.update({c: context.get('b') + 1})"}},
		},
	}
	pctx := pipecontext.NewFromMap(map[string]any{"a": 21})

	result, err := r.Run(context.Background(), p, pctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pctx.Value("b"))
	assert.Equal(t, int64(43), pctx.Value("c"))
	assert.Equal(t, "b = a * 2; save('b')", result.Context["py"])
}

func TestRun_SkipAndRunFalse(t *testing.T) {
	r := newTestRunner(t, t.TempDir(), appendStep("a", "order"), appendStep("b", "order"), appendStep("c", "order"))
	no := false

	p := &types.Pipeline{
		Name: "skip",
		Steps: []types.StepDecl{
			{Name: "a"},
			{Name: "b", Skip: true},
			{Name: "c", Run: &no},
		},
	}
	result, err := r.Run(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, result.Context["order"])
	assert.Equal(t, types.RunStatusSkipped, result.Records[1].Status)
	assert.Equal(t, types.RunStatusSkipped, result.Records[2].Status)
	assert.Equal(t, 0, result.Records[2].Attempts)
}

func TestRun_UnknownStep(t *testing.T) {
	r := newTestRunner(t, t.TempDir())

	p := &types.Pipeline{Name: "unknown", Steps: []types.StepDecl{{Name: "nope"}}}
	result, err := r.Run(context.Background(), p, nil)

	require.Error(t, err)
	assert.True(t, step.IsNotFoundError(err))
	assert.Equal(t, types.RunStatusFailed, result.Status)
	assert.Equal(t, types.RunStatusFailed, result.Records[0].Status)
}

func TestRun_FailureRunsOnFailureAndReturnsOriginalError(t *testing.T) {
	var failures int
	r := newTestRunner(t, t.TempDir(),
		failingStep("flaky", &failures, 100),
		appendStep("after", "order"),
		appendStep("cleanup", "order"),
		appendStep("celebrate", "order"),
	)

	p := &types.Pipeline{
		Name:      "fail",
		Steps:     []types.StepDecl{{Name: "flaky"}, {Name: "after"}},
		OnSuccess: []types.StepDecl{{Name: "celebrate"}},
		OnFailure: []types.StepDecl{{Name: "cleanup"}, {Name: "missing"}},
	}

	result, err := r.Run(context.Background(), p, nil)
	require.Error(t, err)

	var se *step.StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, step.ErrCodeFailed, se.Code)
	assert.Equal(t, "flaky", se.Step)
	assert.EqualError(t, se.Cause, "boom")

	assert.Equal(t, []string{"cleanup"}, result.Context["order"])
	assert.Equal(t, types.RunStatusFailed, result.Status)
	assert.Contains(t, result.Error, "boom")

	groups := make([]types.StepGroup, len(result.Records))
	for i, rec := range result.Records {
		groups[i] = rec.Group
	}
	assert.Equal(t, []types.StepGroup{types.GroupSteps, types.GroupOnFailure, types.GroupOnFailure}, groups)
}

func TestRun_OnSuccessFailureRunsOnFailure(t *testing.T) {
	var failures int
	r := newTestRunner(t, t.TempDir(), failingStep("bad", &failures, 1), appendStep("cleanup", "order"))

	p := &types.Pipeline{
		Name:      "success-fails",
		Steps:     []types.StepDecl{{Name: "echo", In: map[string]any{"echoMe": "hi"}}},
		OnSuccess: []types.StepDecl{{Name: "bad"}},
		OnFailure: []types.StepDecl{{Name: "cleanup"}},
	}
	result, err := r.Run(context.Background(), p, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"cleanup"}, result.Context["order"])
}

func TestRun_Swallow(t *testing.T) {
	var failures int
	r := newTestRunner(t, t.TempDir(), failingStep("flaky", &failures, 100), appendStep("after", "order"))

	p := &types.Pipeline{
		Name:  "swallow",
		Steps: []types.StepDecl{{Name: "flaky", Swallow: true}, {Name: "after"}},
	}
	result, err := r.Run(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, types.RunStatusSuccess, result.Status)
	assert.Equal(t, types.RunStatusSwallowed, result.Records[0].Status)
	assert.Equal(t, "boom", result.Records[0].Error)
	assert.Equal(t, []string{"after"}, result.Context["order"])
}

func TestRun_Retry(t *testing.T) {
	core, logs := observer.New(logger.DebugLevel.ZapLevel())
	var failures int
	registry := step.NewRegistry()
	registry.MustRegister(failingStep("flaky", &failures, 2))
	r := NewRunner(registry, NewLoader(t.TempDir()), logger.NewFromCore(core, logger.DebugLevel))

	p := &types.Pipeline{
		Name:  "retry",
		Steps: []types.StepDecl{{Name: "flaky", Retry: &types.Retry{Max: 3, Sleep: time.Millisecond}}},
	}
	result, err := r.Run(context.Background(), p, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Records[0].Attempts)
	assert.Equal(t, 2, logs.FilterMessage("step failed, retrying").Len())
	assert.Equal(t, "pipeline", logs.All()[0].LoggerName)

	failures = 0
	p.Steps[0].Retry.Max = 1
	result, err = r.Run(context.Background(), p, nil)
	require.Error(t, err)
	assert.Equal(t, 2, result.Records[0].Attempts)
}

func TestRun_RetrySleepHonoursCancel(t *testing.T) {
	var failures int
	registry := step.NewRegistry()
	registry.MustRegister(failingStep("flaky", &failures, 100))
	r := NewRunner(registry, NewLoader(t.TempDir()), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := &types.Pipeline{
		Name:  "cancel",
		Steps: []types.StepDecl{{Name: "flaky", Retry: &types.Retry{Max: 5, Sleep: time.Hour}}},
	}
	start := time.Now()
	_, err := r.Run(ctx, p, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	r := newTestRunner(t, t.TempDir(), appendStep("a", "order"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, &types.Pipeline{Name: "x", Steps: []types.StepDecl{{Name: "a"}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Records)
}

func TestRunNamed(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, "sum.yaml", `
name: sum
context_parser: list
steps:
  - name: py
    in:
      py: |
        total = argList.length
        save('total')
`)
	writePipeline(t, dir, "plain.yaml", `
steps:
  - name: py
    in:
      py: "save({got: typeof argString === 'undefined' ? 'none' : argString})"
`)
	r := newTestRunner(t, dir)

	result, err := r.RunNamed(context.Background(), "sum", "a,b,c", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Context["total"])
	assert.Equal(t, []any{"a", "b", "c"}, result.Context["argList"])

	_, err = r.RunNamed(context.Background(), "sum", "", "")
	require.Error(t, err)
	assert.True(t, contextparser.IsParseError(err))

	result, err = r.RunNamed(context.Background(), "plain", "hello", "string")
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Context["got"])

	result, err = r.WithDefaultParser("string").RunNamed(context.Background(), "plain", "dflt", "")
	require.NoError(t, err)
	assert.Equal(t, "dflt", result.Context["got"])

	result, err = r.RunNamedWithContext(context.Background(), "plain", "x", "string", map[string]any{"argString": "override"})
	require.NoError(t, err)
	assert.Equal(t, "override", result.Context["got"])

	_, err = r.RunNamed(context.Background(), "absent", "", "")
	assert.True(t, IsNotFoundError(err))
}
