package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/model"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ASCII, "ascii": ASCII, "Markdown": Markdown, "md": Markdown} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("html")
	assert.Error(t, err)
}

func TestCapabilities_ASCII(t *testing.T) {
	out := Capabilities(ASCII, []model.Capability{
		{ID: "research", Label: "Competitive Research Analyst", Mandatory: true, UsesSearch: true},
		{ID: "strategist", Label: "Strategy Consultant", DependsOn: []string{"research", "analysis"}, EnabledByDefault: true},
	})
	assert.Contains(t, out, "Competitive Research Analyst")
	assert.Contains(t, out, "research, analysis")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "───")
}

func TestRecords_Markdown(t *testing.T) {
	records := []model.ExtractedRecord{
		{"name": "Todoist", "url": "https://todoist.com", "users": json.Number("30000000")},
		{"name": "TickTick"},
	}
	out := Records(Markdown, []string{"name", "url", "users"}, records)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(strings.ToLower(lines[0]), "| name"))
	assert.Contains(t, out, "30000000")
	assert.Contains(t, lines[3], "TickTick")
}

func TestHistoryAndRuns(t *testing.T) {
	now := time.Now()
	out := History(ASCII, []model.CacheSummary{
		{Topic: "Task app", Sections: 2, RecordCount: 2, HasRecords: true, UpdatedAt: now},
		{Topic: "Prose app", Sections: 2, UpdatedAt: now},
	})
	assert.Contains(t, out, "Task app")
	assert.Contains(t, out, "Prose app")

	done := now.Add(90 * time.Second)
	out = Runs(Markdown, []model.RunInfo{
		{ID: "0123456789abcdef", Topic: "Task app", Status: model.RunStatusCompleted, StartedAt: now, FinishedAt: &done},
		{ID: "x", Topic: "Broken", Status: model.RunStatusFailed, StartedAt: now, Error: "stage \"research\" failed"},
	})
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "日本語...", Truncate("日本語のテキスト", 6))
}
