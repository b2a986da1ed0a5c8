package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"yqhp/pipeline-engine/internal/config"
	"yqhp/pipeline-engine/internal/pipeline"
	"yqhp/pipeline-engine/internal/step/stepinit"
	"yqhp/pipeline-engine/pkg/logger"
	"yqhp/pipeline-engine/pkg/types"
)

const greetPipeline = `
name: greet
context_parser: keyvaluepairs
steps:
  - name: py
    in:
      py: |
        greeting = 'hello ' + who
        save('greeting')
`

const failPipeline = `
name: fail
steps:
  - name: py
    in:
      pycode: "throw new Error('nope')"
on_failure:
  - name: default
    in:
      defaults:
        cleaned: true
`

func newTestServer(t *testing.T, log *logger.Logger) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.yaml"), []byte(greetPipeline), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fail.yml"), []byte(failPipeline), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("steps: []"), 0644))

	runner := pipeline.NewRunner(stepinit.NewRegistry(logger.NewNop()), pipeline.NewLoader(dir), logger.NewNop())
	return NewServer(runner, nil, log)
}

func doJSON(t *testing.T, s *Server, method, path, body string, out any) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		var result HealthResponse
		code := doJSON(t, server, http.MethodGet, path, "", &result)
		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "healthy", result.Status)
	}
}

func TestListSteps(t *testing.T) {
	server := newTestServer(t, nil)

	var result StepsResponse
	code := doJSON(t, server, http.MethodGet, "/api/v1/steps", "", &result)
	require.Equal(t, fiber.StatusOK, code)

	names := make([]string, len(result.Steps))
	for i, s := range result.Steps {
		names[i] = s.Name
		assert.NotEmpty(t, s.Description)
	}
	assert.Contains(t, names, "py")
	assert.Contains(t, names, "echo")
	assert.Equal(t, len(names), result.Total)
}

func TestRunPipeline(t *testing.T) {
	server := newTestServer(t, nil)

	var result RunResponse
	code := doJSON(t, server, http.MethodPost, "/api/v1/pipelines/greet/run", `{"context_arg": "who=world"}`, &result)
	require.Equal(t, fiber.StatusOK, code)

	assert.Equal(t, types.RunStatusSuccess, result.Status)
	assert.Equal(t, "greet", result.Pipeline)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "hello world", result.Context["greeting"])
	require.Len(t, result.Records, 1)
	assert.Equal(t, types.RunStatusSuccess, result.Records[0].Status)
}

func TestRunPipeline_ContextOverride(t *testing.T) {
	server := newTestServer(t, nil)

	var result RunResponse
	code := doJSON(t, server, http.MethodPost, "/api/v1/pipelines/greet/run",
		`{"context_arg": "who=world", "context": {"who": "there"}}`, &result)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "hello there", result.Context["greeting"])
}

func TestRunPipeline_Errors(t *testing.T) {
	server := newTestServer(t, nil)

	var errResp ErrorResponse
	code := doJSON(t, server, http.MethodPost, "/api/v1/pipelines/absent/run", "", &errResp)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "pipeline_not_found", errResp.Error)

	code = doJSON(t, server, http.MethodPost, "/api/v1/pipelines/greet/run", `{"parser": "csv", "context_arg": "x"}`, &errResp)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, errResp.Message, "unknown context parser 'csv'")

	code = doJSON(t, server, http.MethodPost, "/api/v1/pipelines/broken/run", "", &errResp)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "invalid_pipeline_input", errResp.Error)

	code = doJSON(t, server, http.MethodPost, "/api/v1/pipelines/greet/run", `{"context_arg": `, &errResp)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", errResp.Error)
}

func TestRunPipeline_FailedRun(t *testing.T) {
	server := newTestServer(t, nil)

	var result RunResponse
	code := doJSON(t, server, http.MethodPost, "/api/v1/pipelines/fail/run", "", &result)
	require.Equal(t, fiber.StatusUnprocessableEntity, code)

	assert.Equal(t, types.RunStatusFailed, result.Status)
	assert.Contains(t, result.Error, "nope")
	assert.Equal(t, true, result.Context["cleaned"])
}

func TestNotFoundRoute(t *testing.T) {
	server := newTestServer(t, nil)

	var errResp ErrorResponse
	code := doJSON(t, server, http.MethodGet, "/api/v1/nothing", "", &errResp)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "error_404", errResp.Error)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(logger.InfoLevel.ZapLevel())
	server := newTestServer(t, logger.NewFromCore(core, logger.InfoLevel))

	doJSON(t, server, http.MethodGet, "/health", "", nil)
	doJSON(t, server, http.MethodGet, "/missing", "", nil)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "rest", entries[0].LoggerName)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
}

func TestConfigFrom(t *testing.T) {
	sc := config.DefaultConfig().Server
	sc.EnableCORS = true
	cfg := ConfigFrom(sc)
	assert.Equal(t, sc.Address, cfg.Address)
	assert.True(t, cfg.EnableCORS)

	server := NewServer(pipeline.NewRunner(stepinit.NewRegistry(nil), pipeline.NewLoader(t.TempDir()), nil), cfg, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/steps", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := server.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
