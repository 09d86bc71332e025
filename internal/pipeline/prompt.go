package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"go-research-pipeline/internal/model"
)

const (
	markerOpen  = "⟦"
	markerClose = "⟧"
)

// searchMarker and contextMarker are deferred references left in a rendered
// prompt at build time and resolved by the Executor once data exists.
func searchMarker() string { return markerOpen + "search" + markerClose }

func contextMarker(id string) string { return markerOpen + "context:" + id + markerClose }

// PromptData is the per-run parameter set a capability template sees.
type PromptData struct {
	Topic       string
	SearchLimit int
	Language    string
}

// prompt funcs used only to validate templates at registry construction
var parseFuncs = template.FuncMap{
	"search":  func() string { return "" },
	"context": func(string) string { return "" },
}

func parsePrompt(c model.Capability) (*template.Template, error) {
	t, err := template.New(c.ID).Funcs(parseFuncs).Option("missingkey=error").Parse(c.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return t, nil
}

// renderPrompt executes the capability template for one run. Dependency
// outputs and search results become markers; inline {{context "id"}}
// references are reported back so the caller does not append them twice.
func renderPrompt(t *template.Template, c model.Capability, data PromptData) (string, map[string]bool, error) {
	inline := make(map[string]bool)
	deps := make(map[string]bool, len(c.DependsOn))
	for _, d := range c.DependsOn {
		deps[d] = true
	}

	clone, err := t.Clone()
	if err != nil {
		return "", nil, err
	}
	clone.Funcs(template.FuncMap{
		"search": func() string { return searchMarker() },
		"context": func(id string) (string, error) {
			if !deps[id] {
				return "", fmt.Errorf("template references %q which is not a declared dependency", id)
			}
			inline[id] = true
			return contextMarker(id), nil
		},
	})

	var buf bytes.Buffer
	if err := clone.Execute(&buf, data); err != nil {
		return "", nil, fmt.Errorf("execute template %s: %w", c.ID, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the %s.", c.Label)
	if c.Backstory != "" {
		sb.WriteString(" " + c.Backstory)
	}
	sb.WriteString("\n")
	if c.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n", c.Goal)
	}
	sb.WriteString("\nTask:\n")
	sb.WriteString(strings.TrimSpace(buf.String()))
	sb.WriteString("\n")
	if c.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\nExpected output: %s\n", c.ExpectedOutput)
	}
	if data.Language != "" {
		fmt.Fprintf(&sb, "Write your answer in %s.\n", data.Language)
	}
	return sb.String(), inline, nil
}

// resolvePrompt substitutes every deferred reference in a single pass, so
// upstream outputs that happen to contain marker text are not re-expanded.
func resolvePrompt(stage model.PipelineStage, outputs map[string]model.StageResult, hits []model.SearchResult) (string, error) {
	pairs := make([]string, 0, 2*len(stage.ContextStageIDs)+2)
	for _, id := range stage.ContextStageIDs {
		res, ok := outputs[id]
		if !ok || !res.Succeeded {
			return "", fmt.Errorf("context stage %q has no result", id)
		}
		pairs = append(pairs, contextMarker(id), formatContext(res))
	}
	if stage.UsesSearch {
		pairs = append(pairs, searchMarker(), formatSearchResults(hits))
	}
	if len(pairs) == 0 {
		return stage.RenderedPrompt, nil
	}
	return strings.NewReplacer(pairs...).Replace(stage.RenderedPrompt), nil
}

func formatContext(res model.StageResult) string {
	label := res.Label
	if label == "" {
		label = res.StageID
	}
	return fmt.Sprintf("### %s\n%s\n", label, strings.TrimSpace(res.RawOutput))
}

func formatSearchResults(hits []model.SearchResult) string {
	if len(hits) == 0 {
		return "(no web search results were available)\n"
	}
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "[%d] %s\nURL: %s\n%s\n\n", i+1, h.Title, h.URL, h.Snippet)
	}
	return sb.String()
}
