package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/store"
)

// RunTracker keeps an in-memory view of one run and mirrors it into the
// run log when one is available. Recording failures are logged and ignored.
type RunTracker struct {
	ctx    context.Context
	runLog store.RunLog
	log    *slog.Logger

	mu   sync.RWMutex
	info model.RunInfo
}

// NewRunTracker creates a tracker; runLog may be nil.
func NewRunTracker(ctx context.Context, runID, topic string, runLog store.RunLog, logger *slog.Logger) *RunTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunTracker{
		ctx:    ctx,
		runLog: runLog,
		log:    logger,
		info: model.RunInfo{
			ID:        runID,
			Topic:     topic,
			Status:    model.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		},
	}
}

// Start records the run as running.
func (t *RunTracker) Start() {
	t.mu.RLock()
	info := t.info
	t.mu.RUnlock()
	if t.runLog == nil {
		return
	}
	if err := t.runLog.StartRun(t.ctx, info); err != nil {
		t.log.Warn("⚠️ Failed to record run start", "run_id", info.ID, "error", err)
	}
}

func (t *RunTracker) StageStarted(stage model.PipelineStage, at time.Time) {
	p := model.StageProgress{Stage: stage.CapabilityID, Status: "started", StartedAt: at}
	t.mu.Lock()
	t.info.Stages = append(t.info.Stages, p)
	t.mu.Unlock()
	t.save(p)
}

func (t *RunTracker) StageFinished(res model.StageResult) {
	end := res.StartedAt.Add(res.Duration)
	p := model.StageProgress{
		Stage:       res.StageID,
		Status:      "completed",
		StartedAt:   res.StartedAt,
		FinishedAt:  &end,
		OutputChars: len(res.RawOutput),
	}
	if !res.Succeeded {
		p.Status = "failed"
		p.Error = res.Error
	}

	t.mu.Lock()
	for i := range t.info.Stages {
		if t.info.Stages[i].Stage == p.Stage {
			t.info.Stages[i] = p
		}
	}
	t.mu.Unlock()
	t.save(p)
}

// Finish marks the run completed, cached or failed.
func (t *RunTracker) Finish(status string, runErr error) {
	now := time.Now().UTC()
	t.mu.Lock()
	t.info.Status = status
	t.info.FinishedAt = &now
	if runErr != nil {
		t.info.Error = runErr.Error()
	}
	info := t.info
	t.mu.Unlock()

	if t.runLog == nil {
		return
	}
	if err := t.runLog.FinishRun(t.ctx, info.ID, info.Status, info.Error, now); err != nil {
		t.log.Warn("⚠️ Failed to record run finish", "run_id", info.ID, "error", err)
	}
}

// Info returns a snapshot of the tracked run.
func (t *RunTracker) Info() model.RunInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info := t.info
	info.Stages = append([]model.StageProgress(nil), t.info.Stages...)
	return info
}

func (t *RunTracker) save(p model.StageProgress) {
	if t.runLog == nil {
		return
	}
	if err := t.runLog.SaveStageProgress(t.ctx, t.info.ID, p); err != nil {
		t.log.Warn("⚠️ Failed to record stage progress", "run_id", t.info.ID, "stage", p.Stage, "error", err)
	}
}
