package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/store"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"RESEARCH_PROVIDER", "RESEARCH_MODEL", "RESEARCH_MAX_RETRIES", "RESEARCH_CACHE_DRIVER",
		"RESEARCH_CACHE_PATH", "RESEARCH_ADDR", "RESEARCH_LOG_LEVEL",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, store.DriverSQLite, cfg.Cache.Driver)
	assert.Equal(t, 4, cfg.RetryConfig().MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "research.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o
  max_retries: 0
cache:
  driver: file
  path: history.json
pipeline:
  defaults: [strategist, persona]
`), 0644))

	t.Setenv("RESEARCH_MODEL", "gpt-4.1-mini")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RESEARCH_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 1, cfg.RetryConfig().MaxAttempts)
	assert.Equal(t, store.DriverFile, cfg.Cache.Driver)
	assert.Equal(t, []string{"strategist", "persona"}, cfg.Pipeline.Defaults)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	// untouched sections keep their defaults
	assert.Equal(t, "jp-jp", cfg.Search.Region)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAPIKeyFromEnv_GeminiFallsBackToGoogle(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")
	assert.Equal(t, "g-key", APIKeyFromEnv("gemini"))
	t.Setenv("GEMINI_API_KEY", "gem-key")
	assert.Equal(t, "gem-key", APIKeyFromEnv("gemini"))
	assert.Empty(t, APIKeyFromEnv("anthropic"))
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "mistral"
	cfg.Cache.Driver = "redis"
	cfg.Search.Limit = 0
	cfg.Log.Level = "loud"
	cfg.Server.ShutdownTimeout = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
	for _, want := range []string{"llm.provider", "cache.driver", "search.limit", "log.level", "server.shutdown_timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}
