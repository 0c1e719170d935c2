// Package main provides the entry point for the websearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for websearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websearch",
		Short: "Crawl the web and search it from your terminal",
		Long: `Websearch is a small self-hosted search engine.

It crawls seed URLs politely, builds an inverted index ranked with
TF-IDF or BM25, persists documents in SQLite or PostgreSQL, and answers
queries from the command line, an interactive shell, or an HTTP API.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewShellCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
