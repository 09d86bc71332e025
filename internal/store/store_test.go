package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/model"
)

func sampleReport() model.Report {
	return model.Report{Sections: []model.Section{
		{StageID: "research", Label: "Competitive Research Analyst", Content: "市場調査: Todoist, TickTick"},
		{StageID: "analysis", Label: "Business Analyst", Content: "分析 <b>&</b> notes"},
	}}
}

func sampleRecords() []model.ExtractedRecord {
	return []model.ExtractedRecord{
		{"name": "A", "url": "u1", "score": json.Number("4.5")},
		{"name": "B", "url": "u2", "tags": []interface{}{"x", "y"},
			"meta": map[string]interface{}{"founded": json.Number("2010"), "remote": true}},
	}
}

func backends(t *testing.T) map[string]Cache {
	t.Helper()
	dir := t.TempDir()

	sq, err := Open(DriverSQLite, filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	fc, err := Open(DriverFile, filepath.Join(dir, "history.json"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sq.Close()
		fc.Close()
	})
	return map[string]Cache{"sqlite": sq, "file": fc}
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			miss, err := c.Lookup(ctx, "Task app")
			require.NoError(t, err)
			assert.Nil(t, miss)

			withRecords := &model.CacheEntry{Topic: "Task app", Report: sampleReport(), Records: sampleRecords(), HasRecords: true, RunID: "run-1"}
			reportOnly := &model.CacheEntry{Topic: "Recipe app", Report: sampleReport()}
			require.NoError(t, c.Store(ctx, withRecords))
			require.NoError(t, c.Store(ctx, reportOnly))

			got, err := c.Lookup(ctx, "Task app")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, sampleReport(), got.Report)
			assert.Equal(t, sampleRecords(), got.Records)
			assert.True(t, got.HasRecords)
			assert.Equal(t, "run-1", got.RunID)

			got, err = c.Lookup(ctx, "Recipe app")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, sampleReport(), got.Report)
			assert.Nil(t, got.Records)
			assert.False(t, got.HasRecords)

			// exact-match key
			got, err = c.Lookup(ctx, "task app")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestCache_OverwriteKeepsOtherTopics(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "a", Report: sampleReport(), Records: sampleRecords(), HasRecords: true}))
			require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "b", Report: sampleReport()}))

			fresh := model.Report{Sections: []model.Section{{StageID: "research", Label: "R", Content: "new"}}}
			require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "a", Report: fresh}))

			got, err := c.Lookup(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, fresh, got.Report)
			assert.Nil(t, got.Records)
			assert.False(t, got.HasRecords)

			other, err := c.Lookup(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, sampleReport(), other.Report)

			list, err := c.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 2)
		})
	}
}

func TestSQLite_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	c, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer c.Close()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "old", Report: sampleReport(), UpdatedAt: base}))
	require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "new", Report: sampleReport(), Records: sampleRecords(), HasRecords: true, UpdatedAt: base.Add(150 * time.Millisecond)}))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Topic)
	assert.Equal(t, 2, list[0].RecordCount)
	assert.Equal(t, 2, list[0].Sections)
	assert.Equal(t, "old", list[1].Topic)
}

func TestSQLite_RunLog(t *testing.T) {
	ctx := context.Background()
	c, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer c.Close()

	rl, ok := RunLogOf(c)
	require.True(t, ok)

	start := time.Now().UTC()
	require.NoError(t, rl.StartRun(ctx, model.RunInfo{ID: "r1", Topic: "Task app", Status: model.RunStatusRunning, StartedAt: start}))
	require.NoError(t, rl.SaveStageProgress(ctx, "r1", model.StageProgress{Stage: "research", Status: "started", StartedAt: start}))
	done := start.Add(time.Second)
	require.NoError(t, rl.SaveStageProgress(ctx, "r1", model.StageProgress{Stage: "research", Status: "completed", StartedAt: start, FinishedAt: &done, OutputChars: 42}))
	require.NoError(t, rl.FinishRun(ctx, "r1", model.RunStatusCompleted, "", done))

	runs, err := rl.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusCompleted, runs[0].Status)
	require.NotNil(t, runs[0].FinishedAt)
	require.Len(t, runs[0].Stages, 1)
	assert.Equal(t, "completed", runs[0].Stages[0].Status)
	assert.Equal(t, 42, runs[0].Stages[0].OutputChars)
}

func TestRunLogOf_FileBackend(t *testing.T) {
	c, err := OpenFile(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, err)
	_, ok := RunLogOf(c)
	assert.False(t, ok)
}

func TestFile_CorruptDocumentIsAnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	c, err := OpenFile(path)
	require.NoError(t, err)

	_, err = c.Lookup(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, c.Store(ctx, &model.CacheEntry{Topic: "x", Report: sampleReport()}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(b))
}

func TestFile_ReadsLegacyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `{"家計簿アプリ": {"report": "## 👤 調査 の報告\n\n本文", "df_data": [{"name": "Zaim", "users": 9000000}]}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	c, err := OpenFile(path)
	require.NoError(t, err)

	got, err := c.Lookup(context.Background(), "家計簿アプリ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.HasRecords)
	assert.Equal(t, json.Number("9000000"), got.Records[0]["users"])
	require.Len(t, got.Report.Sections, 1)
	assert.Contains(t, got.Report.Sections[0].Content, "本文")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("redis", "x")
	assert.Error(t, err)
}
