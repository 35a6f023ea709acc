package models

import "time"

// Trigger names what started a run.
type Trigger string

const (
	TriggerInterval Trigger = "interval"
	TriggerManual   Trigger = "manual"
)

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunResult describes one fetch-and-persist execution. It is also the
// payload of run events.
type RunResult struct {
	RunID           string         `json:"run_id"`
	Trigger         Trigger        `json:"trigger"`
	Debug           bool           `json:"debug"`
	Model           string         `json:"model"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Status          RunStatus      `json:"status"`
	LatestPath      string         `json:"latest_path,omitempty"`
	TimestampedPath string         `json:"timestamped_path,omitempty"`
	URLs            []string       `json:"urls,omitempty"`
	NewURLs         []string       `json:"new_urls,omitempty"`
	Usage           map[string]any `json:"usage,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
