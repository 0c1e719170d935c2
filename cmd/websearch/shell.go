package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/websearch/internal/engine"
	"github.com/nao1215/websearch/internal/shell"
	"github.com/spf13/cobra"
)

// NewShellCmd creates the shell command.
func NewShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Shell starts an interactive session for crawling and searching.

Commands:
  crawl            Crawl the configured seeds and index the results
  search <query>   Search the index
  load             Load the index snapshot from disk
  stats            Show index and store statistics
  help             Show the command list
  exit, quit       Leave the shell

Examples:
  # Start the shell with the discovered configuration
  websearch shell

  # Start the shell with a specific configuration file
  websearch shell -c mysite.yaml`,
		Args: cobra.NoArgs,
		RunE: runShellCmd,
	}

	addConfigFlags(cmd)

	return cmd
}

// runShellCmd executes the shell command.
func runShellCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
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

	// A missing snapshot is fine; the crawl or load commands fill the
	// index later in the session.
	if err := eng.LoadIndex(); err != nil {
		logger.Debug("no index snapshot loaded", "error", err)
	}

	sh := shell.New(eng, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	return sh.Run(ctx)
}
