package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/search"
	"go-research-pipeline/internal/store"
)

// Indexer is told about every entry the runner stores.
type Indexer interface {
	IndexEntry(entry *model.CacheEntry) error
}

// RunnerOptions tune prompt rendering and extraction.
type RunnerOptions struct {
	Language    string
	SearchLimit int
	// ExtractFrom names the stage whose output is scanned for the comparison
	// table before falling back to the whole report.
	ExtractFrom string
}

// Runner ties the builder, executor, assembler, extractor and cache together.
// Runs are serialized: one run is in flight at a time.
type Runner struct {
	registry    *Registry
	builder     *Builder
	executor    *Executor
	cache       store.Cache
	indexer     Indexer
	log         *slog.Logger
	extractFrom string
	newID       func() string

	mu sync.Mutex
}

// NewRunner wires a runner. cache may be nil, in which case nothing is
// looked up or stored.
func NewRunner(reg *Registry, m llm.LanguageModel, s search.Searcher, cache store.Cache, opts RunnerOptions, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ExtractFrom == "" {
		opts.ExtractFrom = CapAnalysis
	}
	return &Runner{
		registry:    reg,
		builder:     NewBuilder(reg, BuildOptions{SearchLimit: opts.SearchLimit, Language: opts.Language}),
		executor:    NewExecutor(m, s, logger),
		cache:       cache,
		log:         logger,
		extractFrom: opts.ExtractFrom,
		newID:       uuid.NewString,
	}
}

// SetIndexer registers an index that is updated after each stored run.
func (r *Runner) SetIndexer(ix Indexer) { r.indexer = ix }

func (r *Runner) Registry() *Registry { return r.registry }

func (r *Runner) Cache() store.Cache { return r.cache }

// Run answers one research request. A nil Capabilities list selects the
// registry defaults; an empty one selects only the mandatory capabilities.
//
// Configuration errors are returned before anything executes. A stage
// failure returns the partial stage results together with a
// *StageInvocationError and stores nothing. Extraction misses and cache I/O
// problems are reported in RunResult.Warnings.
func (r *Runner) Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	if strings.TrimSpace(req.Topic) == "" {
		return nil, configf("topic is required")
	}
	result := &model.RunResult{Topic: req.Topic}

	if r.cache != nil && !req.ForceRefresh {
		entry, err := r.cache.Lookup(ctx, req.Topic)
		switch {
		case err != nil:
			cerr := &CacheIOError{Op: "lookup", Topic: req.Topic, Err: err}
			r.log.Warn("⚠️ Cache lookup failed, running pipeline", "topic", req.Topic, "error", err)
			result.Warnings = append(result.Warnings, cerr.Error())
		case entry != nil:
			r.log.Info("📦 Cache hit", "topic", req.Topic, "run_id", entry.RunID)
			result.RunID = entry.RunID
			result.Report = entry.Report
			result.Records = entry.Records
			result.HasRecords = entry.HasRecords
			result.FromCache = true
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	enabled := req.Capabilities
	if enabled == nil {
		enabled = r.registry.Defaults()
	}
	builder := r.builder
	if req.SearchLimit > 0 {
		opts := builder.opts
		opts.SearchLimit = req.SearchLimit
		builder = NewBuilder(r.registry, opts)
	}
	plan, err := builder.Build(req.Topic, enabled)
	if err != nil {
		return nil, err
	}
	result.Notes = append(result.Notes, plan.Notes...)
	for _, n := range plan.Notes {
		r.log.Info("ℹ️ "+n, "topic", req.Topic)
	}

	runID := r.newID()
	result.RunID = runID
	var runLog store.RunLog
	if r.cache != nil {
		runLog, _ = store.RunLogOf(r.cache)
	}
	tracker := NewRunTracker(ctx, runID, req.Topic, runLog, r.log)
	tracker.Start()

	r.log.Info("🚀 Starting pipeline", "run_id", runID, "topic", req.Topic, "stages", plan.StageIDs())
	results, err := r.executor.RunObserved(ctx, plan.Stages, tracker)
	result.StageResults = results
	if err != nil {
		tracker.Finish(model.RunStatusFailed, err)
		result.Duration = time.Since(start)
		return result, err
	}

	result.Report = Assemble(results, r.registry.Labels())
	result.Records, result.HasRecords = r.extract(result.Report)
	if !result.HasRecords {
		result.Warnings = append(result.Warnings, ErrExtractionMiss.Error()+": the report has no comparison table")
		r.log.Warn("⚠️ No structured data found", "run_id", runID)
	}

	if r.cache != nil {
		entry := &model.CacheEntry{
			Topic:      req.Topic,
			Report:     result.Report,
			Records:    result.Records,
			HasRecords: result.HasRecords,
			RunID:      runID,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := r.cache.Store(ctx, entry); err != nil {
			cerr := &CacheIOError{Op: "store", Topic: req.Topic, Err: err}
			r.log.Warn("⚠️ Cache store failed", "topic", req.Topic, "error", err)
			result.Warnings = append(result.Warnings, cerr.Error())
		} else if r.indexer != nil {
			if err := r.indexer.IndexEntry(entry); err != nil {
				r.log.Warn("⚠️ History index update failed", "topic", req.Topic, "error", err)
			}
		}
	}

	tracker.Finish(model.RunStatusCompleted, nil)
	result.Duration = time.Since(start)
	r.log.Info("🏁 Pipeline completed", "run_id", runID, "topic", req.Topic,
		"sections", len(result.Report.Sections), "records", len(result.Records), "duration", result.Duration)
	return result, nil
}

// extract scans the designated stage output first, then the whole report.
func (r *Runner) extract(report model.Report) ([]model.ExtractedRecord, bool) {
	if s, ok := report.Section(r.extractFrom); ok {
		if records, ok := Extract(s.Content); ok {
			return records, true
		}
	}
	return Extract(report.Markdown())
}

// Lookup reads one cached entry. A nil entry means no run was stored for topic.
func (r *Runner) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	if r.cache == nil {
		return nil, nil
	}
	entry, err := r.cache.Lookup(ctx, topic)
	if err != nil {
		return nil, &CacheIOError{Op: "lookup", Topic: topic, Err: err}
	}
	return entry, nil
}

// History lists cached topics, newest first.
func (r *Runner) History(ctx context.Context) ([]model.CacheSummary, error) {
	if r.cache == nil {
		return nil, nil
	}
	list, err := r.cache.List(ctx)
	if err != nil {
		return nil, &CacheIOError{Op: "list", Err: err}
	}
	return list, nil
}

// Runs returns the run log when the cache backend keeps one.
func (r *Runner) Runs(ctx context.Context, limit int) ([]model.RunInfo, error) {
	runLog, ok := store.RunLogOf(r.cache)
	if !ok {
		return nil, store.ErrNoRunLog
	}
	runs, err := runLog.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// IsConfigurationError reports whether err was raised before any stage ran.
func IsConfigurationError(err error) bool { return errors.Is(err, ErrConfiguration) }
