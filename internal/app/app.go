// Package app wires configuration into a ready-to-use research service
// shared by the CLI, the HTTP API and the MCP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/index"
	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/pipeline"
	"go-research-pipeline/internal/search"
	"go-research-pipeline/internal/store"
)

// App owns the runner and the resources behind it.
type App struct {
	cfg     *config.Config
	runner  *pipeline.Runner
	cache   store.Cache
	history *index.History
	log     *slog.Logger
}

// New builds the language model and searcher from cfg and wires them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	m, err := NewModel(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return Wire(ctx, cfg, m, NewSearcher(cfg), logger)
}

// NewModel returns the configured provider wrapped with a per-call timeout
// and the retry policy.
func NewModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.LanguageModel, error) {
	m, err := llm.New(ctx, cfg.LLMOptions())
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	m = llm.WithTimeout(m, cfg.LLMTimeout())
	return llm.WithRetry(m, cfg.RetryConfig(), logger), nil
}

func NewSearcher(cfg *config.Config) search.Searcher {
	if cfg.Search.Provider == config.SearchNone {
		return search.None{}
	}
	return search.NewDuckDuckGo(cfg.Search.Region, cfg.SearchTimeout())
}

// Wire opens the cache and history index and builds the runner around m and s.
func Wire(ctx context.Context, cfg *config.Config, m llm.LanguageModel, s search.Searcher, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := store.Open(cfg.Cache.Driver, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if cfg.Cache.MemorySize > 0 {
		lru, err := store.NewLRU(cache, cfg.Cache.MemorySize)
		if err != nil {
			cache.Close()
			return nil, err
		}
		cache = lru
	}

	history, err := index.OpenForCache(ctx, cfg.Cache.IndexPath, cache)
	if err != nil {
		cache.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(pipeline.Builtin(), m, s, cache, pipeline.RunnerOptions{
		Language:    cfg.Pipeline.Language,
		SearchLimit: cfg.Search.Limit,
		ExtractFrom: cfg.Pipeline.ExtractFrom,
	}, logger)
	runner.SetIndexer(history)

	logger.Info("✅ Research service ready", "provider", cfg.LLM.Provider, "cache", cfg.Cache.Driver, "path", cfg.Cache.Path)
	return &App{cfg: cfg, runner: runner, cache: cache, history: history, log: logger}, nil
}

func (a *App) Config() *config.Config { return a.cfg }

// Run executes req. When the request names no capabilities the configured
// defaults apply, and failing those the registry defaults.
func (a *App) Run(ctx context.Context, req model.RunRequest) (*model.RunResult, error) {
	if req.Capabilities == nil && a.cfg.Pipeline.Defaults != nil {
		req.Capabilities = a.cfg.Pipeline.Defaults
	}
	return a.runner.Run(ctx, req)
}

func (a *App) Capabilities() []model.Capability { return a.runner.Registry().List() }

func (a *App) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	return a.runner.Lookup(ctx, topic)
}

func (a *App) History(ctx context.Context) ([]model.CacheSummary, error) {
	return a.runner.History(ctx)
}

func (a *App) Runs(ctx context.Context, limit int) ([]model.RunInfo, error) {
	return a.runner.Runs(ctx, limit)
}

// Search runs a full-text query over cached reports.
func (a *App) Search(ctx context.Context, q string, limit int) ([]index.Hit, error) {
	return a.history.Search(ctx, q, limit)
}

func (a *App) Close() error {
	herr := a.history.Close()
	if err := a.cache.Close(); err != nil {
		return err
	}
	return herr
}
