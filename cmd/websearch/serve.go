package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/websearch/internal/api"
	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/engine"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long: `Serve loads the index snapshot and starts the HTTP search API.

Endpoints:
  GET /          liveness and version
  GET /search    ranked query results (?q=&limit=&offset=)
  GET /stats     index dimensions
  GET /health    health check
  GET /metrics   Prometheus metrics

Examples:
  # Serve on the configured host and port
  websearch serve

  # Serve on a specific port
  websearch serve --port 9000

  # Bind to localhost only
  websearch serve --host 127.0.0.1`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().IntP("port", "p", config.DefaultAPIPort,
		"Port to listen on")
	cmd.Flags().String("host", config.DefaultAPIHost,
		"Host address to bind")

	addConfigFlags(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.API.Port, err = cmd.Flags().GetInt("port")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("host") {
		cfg.API.Host, err = cmd.Flags().GetString("host")
		if err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine(eng, logger)

	// Serving an empty index is valid; /health and /metrics must come up
	// even before the first crawl.
	if err := eng.LoadIndex(); err != nil {
		logger.Warn("starting with an empty index", "error", err)
	}

	fmt.Printf("Serving search API on http://%s:%d\n", cfg.API.Host, cfg.API.Port)

	srv := api.NewServer(eng, cfg.API, getVersion(), logger)
	return srv.ListenAndServe(ctx)
}
