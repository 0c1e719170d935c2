package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlReport summarizes one crawl-and-index run for report output.
type CrawlReport struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Seeds are the URLs the crawl started from.
	Seeds []string `json:"seeds"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// PagesCrawled is the number of pages successfully fetched.
	PagesCrawled int `json:"pages_crawled"`

	// PagesIndexed is the number of pages that made it into the index.
	PagesIndexed int `json:"pages_indexed"`

	// URLsVisited is the number of URLs dequeued for fetching, regardless
	// of outcome.
	URLsVisited int `json:"urls_visited"`

	// RobotsDenied is the number of URLs skipped because robots.txt
	// disallowed them.
	RobotsDenied int `json:"robots_denied"`

	// FetchFailures is the number of URLs dropped after exhausting
	// retries.
	FetchFailures int `json:"fetch_failures"`

	// Pages summarizes every crawled page.
	Pages []PageSummary `json:"pages,omitempty"`

	// Error holds a run-level error message, if any.
	Error string `json:"error,omitempty"`
}

// PageSummary is the per-page line of a crawl report.
type PageSummary struct {
	// URL is the page URL.
	URL string `json:"url"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// StatusCode is the HTTP status the page was fetched with.
	StatusCode int `json:"status_code"`

	// OutboundLinks is the number of links discovered on the page.
	OutboundLinks int `json:"outbound_links"`
}

// NewCrawlReport creates a report for a run starting now, with a fresh
// run ID.
func NewCrawlReport(seeds []string) *CrawlReport {
	return &CrawlReport{
		RunID:     uuid.NewString(),
		Seeds:     seeds,
		StartedAt: time.Now(),
	}
}

// AddPage appends a page summary for a crawled page.
func (r *CrawlReport) AddPage(p *ExtractedPage) {
	r.Pages = append(r.Pages, PageSummary{
		URL:           p.URL,
		Title:         p.Title,
		StatusCode:    p.StatusCode,
		OutboundLinks: len(p.OutboundLinks),
	})
}

// CrawlStats carries the counters the crawler accumulates during a run.
type CrawlStats struct {
	// URLsVisited is the number of URLs dequeued and marked visited.
	URLsVisited int `json:"urls_visited"`

	// PagesCrawled is the number of pages successfully fetched.
	PagesCrawled int `json:"pages_crawled"`

	// RobotsDenied is the number of URLs denied by robots.txt.
	RobotsDenied int `json:"robots_denied"`

	// FetchFailures is the number of URLs dropped after retry exhaustion.
	FetchFailures int `json:"fetch_failures"`
}

// CrawlRun is the persisted record of one crawl run.
type CrawlRun struct {
	// ID is the run's UUID.
	ID string `json:"id"`

	// Seeds are the seed URLs of the run.
	Seeds []string `json:"seeds"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed.
	FinishedAt time.Time `json:"finished_at"`

	// PagesCrawled is the number of pages fetched during the run.
	PagesCrawled int `json:"pages_crawled"`

	// PagesIndexed is the number of pages indexed during the run.
	PagesIndexed int `json:"pages_indexed"`
}

// Stats describes the state of the index and the document store.
type Stats struct {
	// Documents is the inverted index document count.
	Documents int `json:"documents"`

	// Terms is the number of distinct terms in the index.
	Terms int `json:"terms"`

	// AverageDocumentLength is the mean token count per document.
	AverageDocumentLength float64 `json:"average_document_length"`

	// StoredDocuments is the row count of the document store.
	StoredDocuments int `json:"stored_documents"`

	// LastRuns holds recent crawl runs, newest first.
	LastRuns []CrawlRun `json:"last_runs,omitempty"`
}
