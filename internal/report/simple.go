package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/websearch/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether the pages section is shown when no
	// page was crawled.
	showEmpty bool

	// verbose enables per-page status and link detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writePages(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      WEBSEARCH CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Seeds:     %s\n", strings.Join(report.Seeds, ", ")))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", report.Duration.Round(time.Millisecond)))

	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:    COMPLETED WITH ERRORS - %s\n", report.Error))
	} else {
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the crawl counter section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  URLS VISITED:   %d\n", report.URLsVisited))
	sb.WriteString(fmt.Sprintf("  PAGES CRAWLED:  %d\n", report.PagesCrawled))
	sb.WriteString(fmt.Sprintf("  PAGES INDEXED:  %d\n", report.PagesIndexed))
	sb.WriteString(fmt.Sprintf("  ROBOTS DENIED:  %d\n", report.RobotsDenied))
	sb.WriteString(fmt.Sprintf("  FETCH FAILURES: %d\n", report.FetchFailures))
	sb.WriteString("\n")
}

// writePages writes the crawled pages section.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWLED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Pages) == 0 {
		sb.WriteString("  No pages crawled\n")
	} else {
		for _, page := range report.Pages {
			sb.WriteString(fmt.Sprintf("  [+] %s\n", page.URL))
			if page.Title != "" {
				sb.WriteString(fmt.Sprintf("      Title: %s\n", page.Title))
			}
			if w.verbose {
				sb.WriteString(fmt.Sprintf("      Status: %d  Links: %d\n", page.StatusCode, page.OutboundLinks))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by websearch\n")
	sb.WriteString("https://github.com/nao1215/websearch\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
