package format

import (
	"strings"
	"time"

	"go-research-pipeline/internal/model"
	"go-research-pipeline/pkg/utils"
)

const timeLayout = "2006-01-02 15:04"

// Capabilities lists the registry in declaration order.
func Capabilities(m Mode, caps []model.Capability) string {
	t := NewTable(m)
	t.Header("ID", "Role", "Mandatory", "Default", "Depends on", "Search")
	for _, c := range caps {
		t.Row(c.ID, c.Label, BoolMark(c.Mandatory), BoolMark(c.EnabledByDefault),
			strings.Join(c.DependsOn, ", "), BoolMark(c.UsesSearch))
	}
	return t.String()
}

// History lists cached topics.
func History(m Mode, entries []model.CacheSummary) string {
	t := NewTable(m)
	t.Header("Topic", "Sections", "Records", "Updated")
	for _, e := range entries {
		records := "-"
		if e.HasRecords {
			records = utils.FormatValue(e.RecordCount)
		}
		t.Row(e.Topic, e.Sections, records, e.UpdatedAt.Local().Format(timeLayout))
	}
	return t.String()
}

// Records renders the comparison table with the same column order as the
// CSV export. cols is usually pipeline.RecordColumns(records).
func Records(m Mode, cols []string, records []model.ExtractedRecord) string {
	t := NewTable(m)
	t.Header(cols...)
	for _, r := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = utils.FormatValue(r[c])
		}
		t.Row(row...)
	}
	if m == ASCII {
		for i, c := range cols {
			if c == "features" {
				t.Wrap(i+1, 60)
			}
		}
	}
	return t.String()
}

// Runs lists logged runs, newest first as returned by the run log.
func Runs(m Mode, runs []model.RunInfo) string {
	t := NewTable(m)
	t.Header("Run", "Topic", "Status", "Stages", "Started", "Duration", "Error")
	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		t.Row(shortID(r.ID), r.Topic, r.Status, len(r.Stages),
			r.StartedAt.Local().Format(timeLayout), dur, Truncate(r.Error, 40))
	}
	return t.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
