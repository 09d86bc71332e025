package model

import "time"

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunInfo is one row of the run log
type RunInfo struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Stages     []StageProgress `json:"stages,omitempty"`
}

// StageProgress tracks one stage of a logged run
type StageProgress struct {
	Stage       string     `json:"stage"`
	Status      string     `json:"status"` // "started", "completed", "failed"
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	OutputChars int        `json:"output_chars"`
	Error       string     `json:"error,omitempty"`
}
