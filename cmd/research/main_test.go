package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/search"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_RunThenHistory(t *testing.T) {
	for _, k := range []string{"RESEARCH_PROVIDER", "RESEARCH_MODEL", "RESEARCH_CACHE_DRIVER", "RESEARCH_CACHE_PATH", "RESEARCH_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("GEMINI_API_KEY", "test-key")

	calls := 0
	newModel = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.LanguageModel, error) {
		return llm.Func(func(ctx context.Context, prompt string) (string, error) {
			calls++
			if strings.HasPrefix(prompt, "You are the Business Analyst.") {
				return "Summary.\n```json\n[{\"name\": \"Todoist\", \"url\": \"https://todoist.com\", \"features\": \"lists\"}]\n```", nil
			}
			return "Market notes.", nil
		}), nil
	}
	newSearcher = func(*config.Config) search.Searcher { return search.None{} }

	dir := t.TempDir()
	cache := []string{"--cache-driver", "file", "--cache-path", filepath.Join(dir, "history.json")}
	exportDir := filepath.Join(dir, "out")

	out, err := execute(t, append([]string{"run", "Task app", "--mandatory-only", "--export", exportDir, "--export-formats", "csv,md"}, cache...)...)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, out, "## 👤 Competitive Research Analyst")
	assert.Contains(t, out, "## 👤 Business Analyst")
	assert.Contains(t, out, "Comparison table")
	assert.Contains(t, out, "https://todoist.com")
	assert.FileExists(t, filepath.Join(exportDir, "Task app", "Task app_records.csv"))
	assert.FileExists(t, filepath.Join(exportDir, "Task app", "Task app_report.md"))

	out, err = execute(t, append([]string{"history", "list"}, cache...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Task app")

	out, err = execute(t, append([]string{"history", "show", "Task app"}, cache...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Todoist")

	_, err = execute(t, append([]string{"history", "show", "Unknown app"}, cache...)...)
	assert.ErrorContains(t, err, `no cached report for "Unknown app"`)

	_, err = execute(t, append([]string{"runs"}, cache...)...)
	assert.Error(t, err)
}

func TestCLI_Capabilities(t *testing.T) {
	out, err := execute(t, "capabilities")
	require.NoError(t, err)
	for _, id := range []string{"research", "analysis", "strategist", "coach", "persona", "product_manager", "architect"} {
		assert.Contains(t, out, id)
	}
}

func TestEnsureAPIKey_NonTerminal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = ""
	err := ensureAPIKey(cfg, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.ErrorIs(t, ensureAPIKey(cfg, r, &bytes.Buffer{}), llm.ErrMissingAPIKey)

	cfg.LLM.APIKey = "k"
	assert.NoError(t, ensureAPIKey(cfg, r, &bytes.Buffer{}))
}
