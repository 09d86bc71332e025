package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/api"
	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/mcp"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API with Swagger docs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cmd, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()
		return api.Serve(ctx, a, api.ServerOptions{
			Addr:            cfg.Server.Addr,
			ShutdownTimeout: cfg.ShutdownTimeout(),
			Color:           cfg.Log.Format != "json",
		}, logging.New("api"))
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the research tools over MCP on stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
research, lookup_history and list_capabilities tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cmd, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()
		return mcp.NewServer(a, version, logging.New("mcp")).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
}
