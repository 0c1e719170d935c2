package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/websearch/internal/engine"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index and store statistics",
		Long: `Stats loads the index snapshot and prints index dimensions, document
store counts, and recent crawl runs.

Examples:
  # Show statistics for the default data directory
  websearch stats

  # Show statistics for a specific data directory
  websearch stats --data-dir ./data`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	addConfigFlags(cmd)

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine(eng, logger)

	// Stats over an empty index are still worth printing.
	if err := eng.LoadIndex(); err != nil {
		logger.Debug("no index snapshot loaded", "error", err)
	}

	stats, err := eng.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Documents indexed:  %d\n", stats.Documents)
	fmt.Fprintf(out, "Distinct terms:     %d\n", stats.Terms)
	fmt.Fprintf(out, "Avg document size:  %.1f tokens\n", stats.AverageDocumentLength)
	fmt.Fprintf(out, "Stored documents:   %d\n", stats.StoredDocuments)

	if len(stats.LastRuns) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Recent crawl runs:")
		for _, run := range stats.LastRuns {
			fmt.Fprintf(out, "  %s  crawled=%d indexed=%d  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.PagesCrawled, run.PagesIndexed, run.ID)
		}
	}

	return nil
}
