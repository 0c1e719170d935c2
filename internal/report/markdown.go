package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/websearch/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Seeds", "`" + strings.Join(report.Seeds, "`, `") + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Error != "" {
		return "⚠️ Completed with errors - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the crawl counter section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"URLs Visited", strconv.Itoa(report.URLsVisited)},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Pages Indexed", strconv.Itoa(report.PagesIndexed)},
			{"Robots Denied", strconv.Itoa(report.RobotsDenied)},
			{"Fetch Failures", strconv.Itoa(report.FetchFailures)},
		},
	})
	md.PlainText("")

	if report.URLsVisited > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of URL outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("URL Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if report.PagesCrawled > 0 {
		chart.LabelAndIntValue("Crawled", uint64(report.PagesCrawled))
	}
	if report.RobotsDenied > 0 {
		chart.LabelAndIntValue("Robots denied", uint64(report.RobotsDenied))
	}
	if report.FetchFailures > 0 {
		chart.LabelAndIntValue("Fetch failed", uint64(report.FetchFailures))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Error != "":
		md.Cautionf(
			"The run did not finish cleanly: %s",
			report.Error,
		)
	case report.FetchFailures > 0:
		md.Warningf(
			"%d URL(s) were dropped after exhausting fetch retries.",
			report.FetchFailures,
		)
	case report.RobotsDenied > 0:
		md.Importantf(
			"%d URL(s) were skipped because robots.txt disallows them.",
			report.RobotsDenied,
		)
	default:
		md.Tip("Every visited URL was fetched and indexed cleanly.")
	}
	md.PlainText("")
}

// writePages writes the crawled pages table.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawled Pages")
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.PlainText("No pages were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Pages))
	for i, p := range report.Pages {
		title := p.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			truncateString(p.URL, 60),
			truncateString(title, 40),
			strconv.Itoa(p.StatusCode),
			strconv.Itoa(p.OutboundLinks),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Title", "Status", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [websearch](https://github.com/nao1215/websearch)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
