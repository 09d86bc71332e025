package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/search"
)

// StageObserver is told about each stage as it starts and finishes.
type StageObserver interface {
	StageStarted(stage model.PipelineStage, at time.Time)
	StageFinished(result model.StageResult)
}

// Executor runs pipeline stages one at a time. It never retries; a failed
// stage ends the run.
type Executor struct {
	model    llm.LanguageModel
	searcher search.Searcher
	log      *slog.Logger
	now      func() time.Time
}

func NewExecutor(m llm.LanguageModel, s search.Searcher, logger *slog.Logger) *Executor {
	if s == nil {
		s = search.None{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{model: m, searcher: s, log: logger, now: time.Now}
}

// Run executes stages in order. On the first failure it returns the results
// gathered so far (the failed stage last, Succeeded=false) together with a
// *StageInvocationError.
func (e *Executor) Run(ctx context.Context, stages []model.PipelineStage) ([]model.StageResult, error) {
	return e.RunObserved(ctx, stages, nil)
}

// RunObserved is Run with progress callbacks. obs may be nil.
func (e *Executor) RunObserved(ctx context.Context, stages []model.PipelineStage, obs StageObserver) ([]model.StageResult, error) {
	results := make([]model.StageResult, 0, len(stages))
	outputs := make(map[string]model.StageResult, len(stages))

	for i, stage := range stages {
		started := e.now()
		if obs != nil {
			obs.StageStarted(stage, started)
		}
		e.log.Info("▶️ Running stage", "stage", stage.CapabilityID, "label", stage.Label, "position", i+1, "of", len(stages))

		out, err := e.runStage(ctx, stage, outputs)
		res := model.StageResult{
			StageID:   stage.CapabilityID,
			Label:     stage.Label,
			StartedAt: started,
			Duration:  e.now().Sub(started),
		}
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			if obs != nil {
				obs.StageFinished(res)
			}
			e.log.Error("❌ Stage failed", "stage", stage.CapabilityID, "error", err)
			return results, &StageInvocationError{StageID: stage.CapabilityID, Label: stage.Label, Err: err}
		}

		res.RawOutput = out
		res.Succeeded = true
		results = append(results, res)
		outputs[stage.CapabilityID] = res
		if obs != nil {
			obs.StageFinished(res)
		}
		e.log.Info("✅ Stage complete", "stage", stage.CapabilityID, "chars", len(out), "duration", res.Duration)
	}
	return results, nil
}

func (e *Executor) runStage(ctx context.Context, stage model.PipelineStage, outputs map[string]model.StageResult) (string, error) {
	var hits []model.SearchResult
	if stage.UsesSearch {
		var err error
		hits, err = e.searcher.Search(ctx, stage.SearchQuery, stage.SearchLimit)
		if err != nil {
			return "", fmt.Errorf("web search: %w", err)
		}
		e.log.Debug("🔎 Search complete", "stage", stage.CapabilityID, "query", stage.SearchQuery, "hits", len(hits))
	}

	prompt, err := resolvePrompt(stage, outputs, hits)
	if err != nil {
		return "", err
	}
	return e.model.Invoke(ctx, prompt)
}
