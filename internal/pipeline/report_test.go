package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"go-research-pipeline/internal/model"
)

func TestAssemble(t *testing.T) {
	results := []model.StageResult{
		{StageID: "research", Label: "Researcher", RawOutput: "market", Succeeded: true},
		{StageID: "analysis", Label: "Analyst", Error: "boom"},
		{StageID: "persona", Label: "Persona", RawOutput: "meh", Succeeded: true},
		{StageID: "extra", RawOutput: "loose", Succeeded: true},
	}
	labels := map[string]string{"research": "Competitive Research Analyst"}

	got := Assemble(results, labels)
	want := model.Report{Sections: []model.Section{
		{StageID: "research", Label: "Competitive Research Analyst", Content: "market"},
		{StageID: "persona", Label: "Persona", Content: "meh"},
		{StageID: "extra", Label: "extra", Content: "loose"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestReportMarkdown_RoundTrip(t *testing.T) {
	labels := Builtin().Labels()
	report := model.Report{Sections: []model.Section{
		{StageID: CapResearch, Label: labels[CapResearch], Content: "Todoist and TickTick lead.\n\n### Trends\n- AI planning"},
		{StageID: CapAnalysis, Label: labels[CapAnalysis], Content: "```json\n[{\"name\": \"A\"}]\n```"},
	}}

	md := report.Markdown()
	assert.Contains(t, md, "## 👤 Competitive Research Analyst\n\nTodoist")
	assert.Contains(t, md, "## 👤 Business Analyst\n\n```json")

	parsed := ParseReportMarkdown("preamble to drop\n"+md, labels)
	if diff := cmp.Diff(report, parsed); diff != "" {
		t.Errorf("parsed report mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReportMarkdown_UnknownLabels(t *testing.T) {
	parsed := ParseReportMarkdown("## 👤 Someone\n\nhello\n", nil)
	assert.Equal(t, []model.Section{{Label: "Someone", Content: "hello"}}, parsed.Sections)
	assert.Empty(t, ParseReportMarkdown("no headings here", nil).Sections)
}
