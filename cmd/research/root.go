package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/app"
	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath  string
	logLevel    string
	provider    string
	model       string
	cacheDriver string
	cachePath   string
}

var rootCmd = &cobra.Command{
	Use:   "research",
	Short: "Multi-agent market research for product ideas",
	Long: "research runs a fixed team of language-model agents (researcher, analyst, strategist, ...)\n" +
		"over a product idea, extracts a competitor comparison table and caches the report by topic.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

// swapped in tests
var (
	newModel    = app.NewModel
	newSearcher = app.NewSearcher
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootFlags.configPath, "config", "c", "", "YAML config file")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error")
	f.StringVar(&rootFlags.provider, "provider", "", "language model provider: gemini, openai or anthropic")
	f.StringVar(&rootFlags.model, "model", "", "model name (provider default when empty)")
	f.StringVar(&rootFlags.cacheDriver, "cache-driver", "", "result cache backend: sqlite or file")
	f.StringVar(&rootFlags.cachePath, "cache-path", "", "result cache location")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(capabilitiesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

// loadConfig reads the config file and environment, applies command-line
// overrides and initialises logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.LLM.Provider = rootFlags.provider
		cfg.LLM.APIKey = config.APIKeyFromEnv(cfg.LLM.Provider)
	}
	if flags.Changed("model") {
		cfg.LLM.Model = rootFlags.model
	}
	if flags.Changed("cache-driver") {
		cfg.Cache.Driver = rootFlags.cacheDriver
	}
	if flags.Changed("cache-path") {
		cfg.Cache.Path = rootFlags.cachePath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = rootFlags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
	return cfg, nil
}

// openApp wires the research service. Commands that never call the model
// pass withModel=false and get a placeholder that always fails.
func openApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config, withModel bool) (*app.App, error) {
	logger := logging.New("research")
	var m llm.LanguageModel = llm.Func(func(context.Context, string) (string, error) {
		return "", errors.New("no language model configured for this command")
	})
	if withModel {
		if err := ensureAPIKey(cfg, cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
			return nil, err
		}
		var err error
		m, err = newModel(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}
	return app.Wire(ctx, cfg, m, newSearcher(cfg), logger)
}

func warnf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  "+format+"\n", args...)
}
