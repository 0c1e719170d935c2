package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/report"
)

// prompt is printed before every command line.
const prompt = "websearch> "

// Engine is the set of engine operations the shell drives.
type Engine interface {
	// Crawl runs a full crawl and indexing pass.
	Crawl(ctx context.Context) (*model.CrawlReport, error)

	// Search runs a ranked query against the index.
	Search(ctx context.Context, rawQuery string, limit, offset int) (*model.SearchResponse, error)

	// LoadIndex loads the index snapshot from disk.
	LoadIndex() error

	// Stats reports index and store dimensions.
	Stats(ctx context.Context) (*model.Stats, error)

	// CacheStats reports query cache hit and miss counts.
	CacheStats() (hits, misses int64)
}

// Shell is an interactive command loop over the search engine.
type Shell struct {
	engine Engine
	cfg    *config.Config
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

// New creates a Shell reading commands from in and writing to out.
func New(engine Engine, cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		engine: engine,
		cfg:    cfg,
		in:     in,
		out:    out,
		logger: logger.With("component", "shell"),
	}
}

// Run reads and executes commands until exit, EOF, or context
// cancellation. Command errors are printed, not returned; only input
// failures propagate.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "websearch interactive shell")
	fmt.Fprintln(s.out, `Type "help" for available commands.`)
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	for ctx.Err() == nil {
		fmt.Fprint(s.out, prompt)
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToLower(cmd) {
		case "exit", "quit":
			fmt.Fprintln(s.out, "Bye.")
			return nil
		case "help":
			s.printHelp()
		case "crawl":
			s.runCrawl(ctx)
		case "search":
			s.runSearch(ctx, strings.TrimSpace(arg))
		case "load":
			s.runLoad()
		case "stats":
			s.runStats(ctx)
		default:
			fmt.Fprintf(s.out, "Unknown command %q.\n", cmd)
			s.printHelp()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	fmt.Fprintln(s.out)
	return nil
}

// printHelp lists the available commands.
func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  crawl            Crawl the configured seeds and index the results")
	fmt.Fprintln(s.out, "  search <query>   Search the index")
	fmt.Fprintln(s.out, "  load             Load the index snapshot from disk")
	fmt.Fprintln(s.out, "  stats            Show index and store statistics")
	fmt.Fprintln(s.out, "  help             Show this help")
	fmt.Fprintln(s.out, "  exit, quit       Leave the shell")
}

// runCrawl crawls the configured seeds and prints the run report.
func (s *Shell) runCrawl(ctx context.Context) {
	fmt.Fprintf(s.out, "Crawling %s ...\n", strings.Join(s.cfg.Crawler.SeedURLs, ", "))

	crawlReport, err := s.engine.Crawl(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Crawl failed: %v\n", err)
		if crawlReport == nil {
			return
		}
		// A partial run still produced pages worth reporting.
	}

	if _, err := report.NewSimpleWriter(s.out).Write(crawlReport); err != nil {
		s.logger.Error("failed to write crawl report", "error", err)
	}
}

// runSearch runs one query and prints the ranked results.
func (s *Shell) runSearch(ctx context.Context, query string) {
	if query == "" {
		fmt.Fprintln(s.out, "Usage: search <query>")
		return
	}

	resp, err := s.engine.Search(ctx, query, s.cfg.API.MaxResults, 0)
	if err != nil {
		fmt.Fprintf(s.out, "Search failed: %v\n", err)
		return
	}
	PrintSearchResponse(s.out, resp)
}

// runLoad loads the index snapshot from disk.
func (s *Shell) runLoad() {
	if err := s.engine.LoadIndex(); err != nil {
		fmt.Fprintf(s.out, "Failed to load index: %v\n", err)
		return
	}
	fmt.Fprintln(s.out, "Index loaded.")
}

// runStats prints index, store, cache and recent run statistics.
func (s *Shell) runStats(ctx context.Context) {
	stats, err := s.engine.Stats(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Failed to collect stats: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Documents indexed:  %d\n", stats.Documents)
	fmt.Fprintf(s.out, "Distinct terms:     %d\n", stats.Terms)
	fmt.Fprintf(s.out, "Avg document size:  %.1f tokens\n", stats.AverageDocumentLength)
	fmt.Fprintf(s.out, "Stored documents:   %d\n", stats.StoredDocuments)

	if hits, misses := s.engine.CacheStats(); hits+misses > 0 {
		fmt.Fprintf(s.out, "Query cache:        %d hit(s), %d miss(es)\n", hits, misses)
	}

	if len(stats.LastRuns) > 0 {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "Recent crawl runs:")
		for _, run := range stats.LastRuns {
			fmt.Fprintf(s.out, "  %s  crawled=%d indexed=%d  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.PagesCrawled, run.PagesIndexed, run.ID)
		}
	}
}

// PrintSearchResponse writes ranked results in the CLI's search format.
// The shell and the search command share it so both print identically.
func PrintSearchResponse(w io.Writer, resp *model.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "No results for %q.\n", resp.Query)
		return
	}

	fmt.Fprintf(w, "Found %d result(s) in %.3fs:\n\n", resp.TotalResults, resp.ExecutionTime)
	for i, result := range resp.Results {
		title := result.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, title)
		fmt.Fprintf(w, "   %s\n", result.URL)
		fmt.Fprintf(w, "   Score: %.4f\n", result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", result.Snippet)
		}
		fmt.Fprintln(w)
	}
}
