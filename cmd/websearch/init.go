package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/websearch/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/websearch.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new websearch configuration file",
		Long: `Initialize creates a new .websearch configuration file in the current directory.

The generated file includes:
- Default settings for crawl limits, timeouts, and politeness
- Indexing and ranking options
- Commented examples for storage backends and the query cache

Examples:
  # Create .websearch in current directory
  websearch init

  # Create config file at a specific path
  websearch init -o myconfig.yaml

  # Force overwrite existing file
  websearch init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/websearch.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to configure settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Seed URLs and crawl limits")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Ranking algorithm (tfidf or bm25)")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Storage backend and query cache")

	return nil
}
