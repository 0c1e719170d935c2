package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/engine"
	"github.com/nao1215/websearch/internal/log"
	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl seed URLs and build the search index",
		Long: `Crawl fetches pages starting from the seed URLs, extracts their text,
and adds them to the inverted index.

The crawler honors robots.txt, waits between requests to the same site,
and stops at the configured page and depth limits. Crawled documents are
persisted to the document store and the index snapshot, so later runs
skip already stored URLs and search commands can load the result.

Interrupting a run with Ctrl-C keeps the pages collected so far: they
are indexed, persisted, and reported like a completed run.

Examples:
  # Crawl a single site
  websearch crawl https://example.com

  # Crawl several seeds with custom limits
  websearch crawl --max-pages 50 --max-depth 2 https://example.com https://example.org

  # Write a markdown report next to the terminal summary
  websearch crawl -o report.md --format markdown https://example.com

  # Use seeds from a configuration file
  websearch crawl -c mysite.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().StringSliceP("seeds", "s", nil,
		"Seed URLs to crawl (replaces seed_urls from the config file)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to collect in this run")
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from a seed")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Number of concurrent crawl workers")

	// Report flags
	cmd.Flags().StringP("output", "o", "",
		"Write the crawl report to this file path (default: stdout)")
	cmd.Flags().StringP("format", "F", report.FormatSimple,
		"Report format: markdown, json, or simple")

	addConfigFlags(cmd)

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
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

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig builds the crawl configuration from flags and
// positional seed arguments.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	seeds, err := cmd.Flags().GetStringSlice("seeds")
	if err != nil {
		return nil, err
	}
	if len(seeds) > 0 {
		cfg.Crawler.SeedURLs = seeds
	}
	cfg.Crawler.SeedURLs = append(cfg.Crawler.SeedURLs, args...)

	// Flags override config file values only when actually passed, so a
	// file-configured limit survives a plain "websearch crawl".
	if cmd.Flags().Changed("max-pages") {
		cfg.Crawler.MaxPages, err = cmd.Flags().GetInt("max-pages")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("max-depth") {
		cfg.Crawler.MaxDepth, err = cmd.Flags().GetInt("max-depth")
		if err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("workers") {
		cfg.Crawler.MaxWorkers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return nil, err
		}
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.ReportFormat, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}

	// Reject bad formats before the crawl runs, not after.
	switch cfg.ReportFormat {
	case report.FormatMarkdown, report.FormatJSON, report.FormatSimple:
	default:
		return nil, fmt.Errorf("%w: %q", report.ErrUnknownFormat, cfg.ReportFormat)
	}

	return cfg, nil
}

// runCrawl executes the crawl and reports the outcome.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Crawler.SeedURLs) == 0 {
		return errors.New("no seed URLs provided (pass them as arguments, --seeds, or seed_urls in the config file)")
	}

	logger.Info("starting crawl",
		"seeds", cfg.Crawler.SeedURLs,
		"maxPages", cfg.Crawler.MaxPages,
		"maxDepth", cfg.Crawler.MaxDepth,
		"workers", cfg.Crawler.MaxWorkers,
	)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine(eng, logger)

	fmt.Printf("Crawling %d seed(s)...\n", len(cfg.Crawler.SeedURLs))
	startTime := time.Now()

	crawlReport, err := eng.Crawl(ctx)
	if err != nil {
		logger.Error("crawl finished with errors", "error", err)
		if crawlReport == nil {
			return err
		}
		// A partial run still produced pages worth reporting.
		fmt.Fprintf(os.Stderr, "Crawl finished with errors: %v\n", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

	return outputReport(cfg, crawlReport)
}

// outputReport writes the crawl report in the requested format. When the
// report goes to a file, the terminal still gets a plain text summary.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	output := os.Stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	if cfg.ReportFormat == report.FormatJSON {
		// JSON reports carry the generating version so archived runs stay
		// attributable.
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	} else {
		var err error
		writer, err = report.NewWriter(cfg.ReportFormat, output)
		if err != nil {
			return err
		}
	}

	if cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(os.Stdout))
	}

	if _, err := writer.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// addConfigFlags registers the flags shared by every engine-backed
// command.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .websearch in current or home directory)")
	cmd.Flags().String("data-dir", "",
		"Directory holding the index snapshot and SQLite database")
}

// buildConfig loads the configuration file (explicit path or discovered)
// and applies the flags every engine-backed command shares.
// If the user explicitly specified a config file path, error if not found.
// If no path specified, silently use the defaults if no file is found.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := configPath != ""
	found := config.FindConfigFile(configPath)

	var cfg *config.Config
	switch {
	case found != "":
		cfg, err = config.Load(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	default:
		cfg = config.NewConfig()
	}

	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// Credential-bearing attributes such as DSNs and auth headers are masked
// before they reach the output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// closeEngine closes the engine and logs any failure.
func closeEngine(eng *engine.Engine, logger *slog.Logger) {
	if err := eng.Close(); err != nil {
		logger.Error("failed to close engine", "error", err)
	}
}
