// research-api serves the research HTTP API.
//
// @title Research Pipeline API
// @version 1.0
// @description Multi-agent market research: run the pipeline for a product idea and browse cached reports.
// @BasePath /api/v1
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/api"
	"go-research-pipeline/internal/app"
	"go-research-pipeline/internal/config"
	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/logging"
)

var flags struct {
	configPath string
	addr       string
}

var rootCmd = &cobra.Command{
	Use:          "research-api",
	Short:        "Serve the research HTTP API",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config, :8080)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("%w for provider %q", llm.ErrMissingAPIKey, cfg.LLM.Provider)
	}
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.Init(level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logging.New("research"))
	if err != nil {
		return err
	}
	defer a.Close()

	return api.Serve(ctx, a, api.ServerOptions{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Color:           cfg.Log.Format != "json",
	}, logging.New("api"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
