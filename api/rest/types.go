package rest

import "yqhp/pipeline-engine/pkg/types"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StepInfo describes one registered step name.
type StepInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StepsResponse lists the registered steps.
type StepsResponse struct {
	Steps []StepInfo `json:"steps"`
	Total int        `json:"total"`
}

// RunRequest is the body of POST /api/v1/pipelines/:name/run.
type RunRequest struct {
	// ContextArg is passed to the context parser.
	ContextArg string `json:"context_arg,omitempty"`

	// Parser overrides the pipeline's context parser.
	Parser string `json:"parser,omitempty"`

	// Context entries are merged over the parsed context.
	Context map[string]any `json:"context,omitempty"`
}

// RunResponse reports the outcome of a pipeline run.
type RunResponse struct {
	RunID      string             `json:"run_id"`
	Pipeline   string             `json:"pipeline"`
	Status     types.RunStatus    `json:"status"`
	DurationMS int64              `json:"duration_ms"`
	Records    []types.StepRecord `json:"records"`
	Context    map[string]any     `json:"context"`
	Error      string             `json:"error,omitempty"`
}

// NewRunResponse converts a run result to its response form.
func NewRunResponse(r *types.RunResult) RunResponse {
	return RunResponse{
		RunID:      r.RunID,
		Pipeline:   r.Pipeline,
		Status:     r.Status,
		DurationMS: r.Duration.Milliseconds(),
		Records:    r.Records,
		Context:    r.Context,
		Error:      r.Error,
	}
}
