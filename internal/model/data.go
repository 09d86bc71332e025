package model

import (
	"strings"
	"time"
)

// Section is one labeled stage output inside a report
type Section struct {
	StageID string `json:"stage_id"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Report is the ordered, concatenation-ready run document
type Report struct {
	Sections []Section `json:"sections"`
}

// SectionHeaderPrefix starts every section heading in the markdown rendering
const SectionHeaderPrefix = "## 👤 "

// Markdown renders the report as one "## 👤 <label>" section per stage.
func (r Report) Markdown() string {
	var sb strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(SectionHeaderPrefix)
		sb.WriteString(s.Label)
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(s.Content))
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Section returns the section produced by stageID, if any.
func (r Report) Section(stageID string) (Section, bool) {
	for _, s := range r.Sections {
		if s.StageID == stageID {
			return s, true
		}
	}
	return Section{}, false
}

// CacheEntry is the persisted result for one topic
type CacheEntry struct {
	Topic      string            `json:"topic"`
	Report     Report            `json:"report"`
	Records    []ExtractedRecord `json:"records"` // nil when extraction found nothing
	HasRecords bool              `json:"has_records"`
	RunID      string            `json:"run_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CacheSummary is the listing view of a cache entry
type CacheSummary struct {
	Topic       string    `json:"topic"`
	Sections    int       `json:"sections"`
	RecordCount int       `json:"record_count"`
	HasRecords  bool      `json:"has_records"`
	UpdatedAt   time.Time `json:"updated_at"`
}
