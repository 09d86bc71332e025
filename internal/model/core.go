package model

import "time"

// ExtractedRecord is a schema-agnostic row of the comparison table
type ExtractedRecord map[string]interface{}

// Capability is an agent role plus its task template
type Capability struct {
	ID               string   `json:"id" yaml:"id"`
	Label            string   `json:"label" yaml:"label"`         // human-readable role name
	Goal             string   `json:"goal" yaml:"goal"`           // one-line role goal
	Backstory        string   `json:"backstory" yaml:"backstory"` // persona framing for the prompt
	PromptTemplate   string   `json:"promptTemplate" yaml:"prompt_template"`
	ExpectedOutput   string   `json:"expectedOutput" yaml:"expected_output"`
	DependsOn        []string `json:"dependsOn" yaml:"depends_on"` // capability ids whose output is context
	Mandatory        bool     `json:"mandatory" yaml:"mandatory"`
	EnabledByDefault bool     `json:"enabledByDefault" yaml:"enabled_by_default"`
	UsesSearch       bool     `json:"usesSearch" yaml:"uses_search"`
}

// PipelineStage is a capability bound to one run
type PipelineStage struct {
	CapabilityID    string   `json:"capabilityId"`
	Label           string   `json:"label"`
	RenderedPrompt  string   `json:"renderedPrompt"` // may hold deferred references
	ContextStageIDs []string `json:"contextStageIds"`
	UsesSearch      bool     `json:"usesSearch"`
	SearchQuery     string   `json:"searchQuery,omitempty"`
	SearchLimit     int      `json:"searchLimit,omitempty"`
}

// StageResult is the outcome of executing one stage
type StageResult struct {
	StageID   string        `json:"stageId"`
	Label     string        `json:"label"`
	RawOutput string        `json:"rawOutput"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// SearchResult is one web search hit
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
