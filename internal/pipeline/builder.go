package pipeline

import (
	"fmt"
	"strings"

	"go-research-pipeline/internal/model"
)

// DefaultSearchLimit matches the number of competitors the researcher lists by default.
const DefaultSearchLimit = 5

// BuildOptions carries per-run prompt parameters.
type BuildOptions struct {
	SearchLimit int
	Language    string
}

// BuildPlan is the ordered stage list for one run plus informational notes.
type BuildPlan struct {
	Stages       []model.PipelineStage
	AutoIncluded []string
	Notes        []string
}

// StageIDs returns the capability ids in pipeline order.
func (p *BuildPlan) StageIDs() []string {
	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.CapabilityID
	}
	return ids
}

// Builder turns a capability selection into an ordered pipeline.
type Builder struct {
	registry *Registry
	opts     BuildOptions
}

// NewBuilder returns a builder over the given registry.
func NewBuilder(r *Registry, opts BuildOptions) *Builder {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	return &Builder{registry: r, opts: opts}
}

// Build selects the mandatory capabilities, the enabled optional ones and
// every transitive dependency, then orders them so each stage follows all
// of its dependencies. Dependencies the caller did not enable are included
// and reported in Notes.
func (b *Builder) Build(topic string, enabled []string) (*BuildPlan, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, configf("topic is required")
	}
	r := b.registry

	selected := make(map[int]bool)
	requested := make(map[int]bool)
	for _, c := range r.caps {
		if c.Mandatory {
			selected[r.index[c.ID]] = true
		}
	}
	for _, id := range enabled {
		i, ok := r.index[id]
		if !ok {
			return nil, configf("unknown capability %q", id)
		}
		requested[i] = true
	}

	// reason[i] is the capability that first pulled i in
	reason := make(map[int]int)
	var visit func(i int)
	visit = func(i int) {
		if selected[i] {
			return
		}
		selected[i] = true
		for _, dep := range r.caps[i].DependsOn {
			di := r.index[dep]
			if !selected[di] {
				if _, seen := reason[di]; !seen {
					reason[di] = i
				}
			}
			visit(di)
		}
	}
	for i := range r.caps {
		if requested[i] {
			visit(i)
		}
	}
	indices := make([]int, 0, len(selected))
	for i := range r.caps {
		if selected[i] {
			indices = append(indices, i)
		}
	}
	order := r.topoOrder(indices)
	if len(order) != len(indices) {
		return nil, cycleError(r.findCycle(indices))
	}

	plan := &BuildPlan{Stages: make([]model.PipelineStage, 0, len(order))}
	for _, i := range order {
		c := r.caps[i]
		if !c.Mandatory && !requested[i] {
			plan.AutoIncluded = append(plan.AutoIncluded, c.ID)
			plan.Notes = append(plan.Notes, fmt.Sprintf("%q was auto-included because %q depends on it", c.ID, r.caps[reason[i]].ID))
		}
		stage, err := b.stageFor(c, topic)
		if err != nil {
			return nil, err
		}
		plan.Stages = append(plan.Stages, stage)
	}
	return plan, nil
}

func (b *Builder) stageFor(c model.Capability, topic string) (model.PipelineStage, error) {
	data := PromptData{Topic: topic, SearchLimit: b.opts.SearchLimit, Language: b.opts.Language}
	rendered, inline, err := renderPrompt(b.registry.tmpls[c.ID], c, data)
	if err != nil {
		return model.PipelineStage{}, configf("%v", err)
	}

	var sb strings.Builder
	sb.WriteString(rendered)
	appended := false
	for _, dep := range c.DependsOn {
		if inline[dep] {
			continue
		}
		if !appended {
			sb.WriteString("\nContext from earlier stages:\n\n")
			appended = true
		}
		sb.WriteString(contextMarker(dep))
		sb.WriteString("\n")
	}

	stage := model.PipelineStage{
		CapabilityID:    c.ID,
		Label:           c.Label,
		RenderedPrompt:  sb.String(),
		ContextStageIDs: append([]string(nil), c.DependsOn...),
		UsesSearch:      c.UsesSearch,
	}
	if c.UsesSearch {
		stage.SearchQuery = topic + " competitors similar services"
		stage.SearchLimit = b.opts.SearchLimit
	}
	return stage, nil
}
