package types

import "time"

// RunStatus represents the outcome of a pipeline run or of one step in it.
type RunStatus string

const (
	// RunStatusSuccess indicates successful execution.
	RunStatusSuccess RunStatus = "success"
	// RunStatusFailed indicates failed execution.
	RunStatusFailed RunStatus = "failed"
	// RunStatusSkipped indicates the step was disabled.
	RunStatusSkipped RunStatus = "skipped"
	// RunStatusSwallowed indicates the step failed but the error was swallowed.
	RunStatusSwallowed RunStatus = "swallowed"
)

// StepRecord 记录单个步骤的执行情况。
type StepRecord struct {
	Group    StepGroup     `json:"group"`
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Status   RunStatus     `json:"status"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunResult 是一次流水线运行的结果。
type RunResult struct {
	RunID     string         `json:"run_id"`
	Pipeline  string         `json:"pipeline"`
	Status    RunStatus      `json:"status"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Records   []StepRecord   `json:"records"`
	Context   map[string]any `json:"context"`
	Error     string         `json:"error,omitempty"`
}

// Finish sets EndTime and Duration.
func (r *RunResult) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
