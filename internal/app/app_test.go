package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/search"
	"go-research-pipeline/internal/store"
)

const analysisReply = "Todoist is strong.\n```json\n" +
	`[{"name": "Todoist", "url": "https://todoist.com", "features": "simple lists"},` +
	` {"name": "TickTick", "url": "https://ticktick.com", "features": "habits"}]` + "\n```"

func fakeModel(calls *int) llm.LanguageModel {
	return llm.Func(func(ctx context.Context, prompt string) (string, error) {
		*calls++
		if strings.HasPrefix(prompt, "You are the Business Analyst.") {
			return analysisReply, nil
		}
		return "notes", nil
	})
}

func testConfig(t *testing.T, driver string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Cache.Driver = driver
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestWire_RunThenCacheHit(t *testing.T) {
	ctx := context.Background()
	calls := 0
	a, err := Wire(ctx, testConfig(t, store.DriverSQLite), fakeModel(&calls), search.None{}, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Run(ctx, model.RunRequest{Topic: "Task app", Capabilities: []string{}})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.True(t, res.HasRecords)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, calls)

	res, err = a.Run(ctx, model.RunRequest{Topic: "Task app"})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 2, calls)

	hits, err := a.Search(ctx, "ticktick", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Task app", hits[0].Topic)

	runs, err := a.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusCompleted, runs[0].Status)
}

func TestApp_ConfiguredDefaults(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, store.DriverFile)
	cfg.Pipeline.Defaults = []string{"persona"}
	calls := 0
	a, err := Wire(ctx, cfg, fakeModel(&calls), search.None{}, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Run(ctx, model.RunRequest{Topic: "Recipe app"})
	require.NoError(t, err)
	var ids []string
	for _, s := range res.Report.Sections {
		ids = append(ids, s.StageID)
	}
	assert.Equal(t, []string{"research", "analysis", "persona"}, ids)

	_, err = a.Runs(ctx, 10)
	assert.ErrorIs(t, err, store.ErrNoRunLog)
}

func TestNewSearcher(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.IsType(t, &search.DuckDuckGo{}, NewSearcher(cfg))
	cfg.Search.Provider = config.SearchNone
	assert.Equal(t, search.None{}, NewSearcher(cfg))
}
