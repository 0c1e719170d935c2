package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/engine"
	"github.com/nao1215/websearch/internal/shell"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the crawled index",
		Long: `Search loads the index snapshot and ranks documents against the query.

Results print numbered with title, URL, relevance score, and a short
snippet around the first query term found in the document body.

Examples:
  # Search with the configured ranking algorithm
  websearch search golang concurrency

  # Limit the result count
  websearch search --limit 5 golang

  # Rank with BM25 instead of TF-IDF
  websearch search --algorithm bm25 golang`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().IntP("limit", "l", config.DefaultMaxResults,
		"Maximum number of results to print")
	cmd.Flags().StringP("algorithm", "a", "",
		"Ranking algorithm: tfidf or bm25 (default: from configuration)")

	addConfigFlags(cmd)

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	limit := cfg.API.MaxResults
	if cmd.Flags().Changed("limit") {
		limit, err = cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
	}

	algorithm, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		return err
	}
	if algorithm != "" {
		cfg.Ranking.Algorithm = algorithm
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

	if err := eng.LoadIndex(); err != nil {
		return fmt.Errorf("failed to load index (run 'websearch crawl' first): %w", err)
	}

	query := strings.Join(args, " ")
	resp, err := eng.Search(cmd.Context(), query, limit, 0)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	shell.PrintSearchResponse(cmd.OutOrStdout(), resp)
	return nil
}
