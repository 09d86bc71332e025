package pipeline

import (
	"strings"

	"go-research-pipeline/internal/model"
)

// Assemble builds the report from stage results: one section per successful
// stage, in result order. labels maps stage id to role label; when a label
// is missing the result's own label, then the stage id, is used.
func Assemble(results []model.StageResult, labels map[string]string) model.Report {
	report := model.Report{Sections: make([]model.Section, 0, len(results))}
	for _, res := range results {
		if !res.Succeeded {
			continue
		}
		label := labels[res.StageID]
		if label == "" {
			label = res.Label
		}
		if label == "" {
			label = res.StageID
		}
		report.Sections = append(report.Sections, model.Section{
			StageID: res.StageID,
			Label:   label,
			Content: res.RawOutput,
		})
	}
	return report
}

// ParseReportMarkdown splits a document produced by Report.Markdown back into
// sections. Text before the first heading is dropped. labels (id to label)
// is used to recover stage ids and may be nil.
func ParseReportMarkdown(text string, labels map[string]string) model.Report {
	byLabel := make(map[string]string, len(labels))
	for id, label := range labels {
		byLabel[label] = id
	}

	var report model.Report
	var cur *model.Section
	var body []string
	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(body, "\n"))
		report.Sections = append(report.Sections, *cur)
		cur, body = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, model.SectionHeaderPrefix) {
			flush()
			label := strings.TrimSpace(strings.TrimPrefix(line, model.SectionHeaderPrefix))
			cur = &model.Section{StageID: byLabel[label], Label: label}
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return report
}
