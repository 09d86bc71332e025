package model

import "time"

// RunRequest is the struct for POST /api/v1/research
type RunRequest struct {
	Topic        string   `json:"topic"`
	Capabilities []string `json:"capabilities"`  // optional capability ids to enable
	ForceRefresh bool     `json:"force_refresh"` // bypass the cache lookup
	SearchLimit  int      `json:"search_limit"`  // web results fed to the researcher
}

// RunResult is what a run (or a cache hit) hands back to the presentation layer
type RunResult struct {
	RunID        string            `json:"run_id,omitempty"`
	Topic        string            `json:"topic"`
	Report       Report            `json:"report"`
	Records      []ExtractedRecord `json:"records"`
	HasRecords   bool              `json:"has_records"`
	FromCache    bool              `json:"from_cache"`
	Notes        []string          `json:"notes,omitempty"`    // informational, e.g. auto-included capabilities
	Warnings     []string          `json:"warnings,omitempty"` // soft failures: no table, cache I/O
	StageResults []StageResult     `json:"stage_results,omitempty"`
	Duration     time.Duration     `json:"duration"`
}
