// Package config loads the YAML configuration file and applies environment
// overrides on top of the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/store"
	"go-research-pipeline/pkg/utils"
)

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Search   SearchConfig   `yaml:"search"`
	Cache    CacheConfig    `yaml:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Export   ExportConfig   `yaml:"export"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
	MaxRetries  int     `yaml:"max_retries"`
}

type SearchConfig struct {
	Provider string `yaml:"provider"` // "duckduckgo" or "none"
	Region   string `yaml:"region"`
	Limit    int    `yaml:"limit"`
	Timeout  string `yaml:"timeout"`
}

type CacheConfig struct {
	Driver     string `yaml:"driver"` // "sqlite" or "file"
	Path       string `yaml:"path"`
	MemorySize int    `yaml:"memory_size"` // LRU entries in front of the store, 0 disables
	IndexPath  string `yaml:"index_path"`  // bleve index; empty keeps it in memory
}

type PipelineConfig struct {
	Language    string   `yaml:"language"`
	ExtractFrom string   `yaml:"extract_from"`
	Defaults    []string `yaml:"defaults"` // capabilities enabled when a request names none
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ExportConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
}

// Search providers
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchNone       = "none"
)

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    llm.ProviderGemini,
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     "2m",
			MaxRetries:  3,
		},
		Search: SearchConfig{
			Provider: SearchDuckDuckGo,
			Region:   "jp-jp",
			Limit:    5,
			Timeout:  "15s",
		},
		Cache: CacheConfig{
			Driver:     store.DriverSQLite,
			Path:       "research.db",
			MemorySize: 64,
		},
		Pipeline: PipelineConfig{
			Language:    "English",
			ExtractFrom: "analysis",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Export: ExportConfig{
			Dir:     "output",
			Formats: []string{"csv", "json", "md"},
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then with the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	applyEnvironment(cfg)
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) {
	if v := os.Getenv("RESEARCH_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("RESEARCH_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("RESEARCH_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxRetries = n
		}
	}
	if v := os.Getenv("RESEARCH_CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}
	if v := os.Getenv("RESEARCH_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("RESEARCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RESEARCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = APIKeyFromEnv(cfg.LLM.Provider)
	}
}

// APIKeyFromEnv reads the conventional key variable(s) of provider.
func APIKeyFromEnv(provider string) string {
	var names []string
	switch strings.ToLower(provider) {
	case llm.ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case llm.ProviderOpenAI:
		names = []string{"OPENAI_API_KEY"}
	case llm.ProviderAnthropic:
		names = []string{"ANTHROPIC_API_KEY"}
	}
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Validate reports every invalid setting at once. A missing API key is not
// an error here; callers may prompt for it.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("llm.provider: %w: %q", llm.ErrUnknownProvider, c.LLM.Provider))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.max_retries must not be negative"))
	}
	switch c.Search.Provider {
	case SearchDuckDuckGo, SearchNone:
	default:
		errs = append(errs, fmt.Errorf("search.provider: unknown provider %q", c.Search.Provider))
	}
	if c.Search.Limit <= 0 {
		errs = append(errs, errors.New("search.limit must be positive"))
	}
	switch c.Cache.Driver {
	case store.DriverSQLite, store.DriverFile:
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("cache.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver: unknown driver %q", c.Cache.Driver))
	}
	if c.Cache.MemorySize < 0 {
		errs = append(errs, errors.New("cache.memory_size must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	for name, d := range map[string]string{
		"llm.timeout":             c.LLM.Timeout,
		"search.timeout":          c.Search.Timeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) LLMTimeout() time.Duration {
	return utils.ParseDuration(c.LLM.Timeout, 2*time.Minute)
}

func (c *Config) SearchTimeout() time.Duration {
	return utils.ParseDuration(c.Search.Timeout, 15*time.Second)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return utils.ParseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// LLMOptions converts the llm section for llm.New.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
}

// RetryConfig derives the model retry policy; max_retries counts retries
// after the first attempt.
func (c *Config) RetryConfig() llm.RetryConfig {
	rc := llm.DefaultRetryConfig
	rc.MaxAttempts = c.LLM.MaxRetries + 1
	return rc
}
