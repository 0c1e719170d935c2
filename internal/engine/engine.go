package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/nao1215/websearch/internal/cache"
	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/crawler"
	"github.com/nao1215/websearch/internal/index"
	"github.com/nao1215/websearch/internal/metrics"
	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/rank"
	"github.com/nao1215/websearch/internal/robots"
	"github.com/nao1215/websearch/internal/storage"
	"github.com/nao1215/websearch/internal/token"
)

// recentRunLimit is how many crawl runs Stats reports.
const recentRunLimit = 5

// Engine orchestrates the full crawl-index-search lifecycle over one
// index, one document store, and one optional query cache.
//
// Design decision: One mutex serializes index mutation and ranking.
// The index has no internal locking, and even a search writes to the
// ranker's statistics cache, so read-write distinctions buy nothing
// here. Ranking over an in-memory index is cheap; the contention that
// matters (fetching, storage I/O) happens outside the lock.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	qcache   *cache.QueryCache
	crawler  *crawler.Crawler
	tok      *token.Tokenizer
	snippets *rank.SnippetGenerator
	strategy rank.Strategy

	mu     sync.Mutex
	idx    *index.Index
	ranker *rank.Ranker
}

// New creates an Engine from the configuration. It opens the document
// store and, when a Redis address is configured, connects the query
// cache. A cache connection failure only disables caching; the engine
// still works.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	strategy, err := rank.ParseStrategy(cfg.Ranking.Algorithm)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	qcache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		logger.Warn("query cache disabled", "error", err)
		qcache = nil
	}

	metrics.Init()

	var gate robots.Checker
	if cfg.Crawler.RespectRobotsTxt {
		gate = robots.NewGate(cfg.Crawler.UserAgent, robots.Options{Logger: logger})
	}
	fetcher := crawler.NewFetcher(cfg.Crawler, logger)

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		qcache:   qcache,
		crawler:  crawler.New(cfg.Crawler, fetcher, gate, logger),
		tok:      token.NewTokenizer(cfg.Indexer),
		snippets: rank.NewSnippetGenerator(cfg.API.SnippetLength),
		strategy: strategy,
		idx:      index.New(),
	}
	e.rebuildRankerLocked()
	return e, nil
}

// Crawl runs one crawl from the configured seeds, indexes and persists
// every new page, snapshots the index, and records the run.
//
// A cancelled crawl is not discarded: whatever was collected before the
// cancellation is indexed, persisted, and reported, and the returned
// error carries the cancellation alongside the partial report.
func (e *Engine) Crawl(ctx context.Context) (*model.CrawlReport, error) {
	report := model.NewCrawlReport(e.cfg.Crawler.SeedURLs)

	pages, stats, crawlErr := e.crawler.Crawl(ctx)
	if stats == nil {
		return nil, fmt.Errorf("crawl failed: %w", crawlErr)
	}

	var errs *multierror.Error
	if crawlErr != nil {
		errs = multierror.Append(errs, crawlErr)
	}

	metrics.AddCrawlOutcome(metrics.OutcomeCrawled, stats.PagesCrawled)
	metrics.AddCrawlOutcome(metrics.OutcomeRobotsDenied, stats.RobotsDenied)
	metrics.AddCrawlOutcome(metrics.OutcomeFetchFailed, stats.FetchFailures)

	// Persistence after a cancelled crawl must still complete, or the
	// partial results the crawler handed back would be lost.
	persistCtx := context.WithoutCancel(ctx)

	e.mu.Lock()
	indexed := 0
	for _, page := range pages {
		report.AddPage(page)
		if e.indexPage(persistCtx, page) {
			indexed++
			metrics.ObserveDocumentIndexed()
		}
	}
	if err := e.idx.Save(e.cfg.SnapshotPath()); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to save index snapshot: %w", err))
	}
	e.rebuildRankerLocked()
	metrics.SetIndexSize(e.idx.DocumentCount(), e.idx.TermCount())
	e.mu.Unlock()

	report.URLsVisited = stats.URLsVisited
	report.PagesCrawled = stats.PagesCrawled
	report.RobotsDenied = stats.RobotsDenied
	report.FetchFailures = stats.FetchFailures
	report.PagesIndexed = indexed
	report.Duration = time.Since(report.StartedAt)

	run := &model.CrawlRun{
		ID:           report.RunID,
		Seeds:        report.Seeds,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.StartedAt.Add(report.Duration),
		PagesCrawled: report.PagesCrawled,
		PagesIndexed: report.PagesIndexed,
	}
	if err := e.store.SaveCrawlRun(persistCtx, run); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to record crawl run: %w", err))
	}

	// Cached responses were computed against the old index.
	if err := e.qcache.Invalidate(persistCtx); err != nil {
		e.logger.Warn("failed to invalidate query cache", "error", err)
	}

	e.logger.Info("crawl run complete",
		slog.String("run_id", report.RunID),
		slog.Int("pages_crawled", report.PagesCrawled),
		slog.Int("pages_indexed", report.PagesIndexed),
		slog.Duration("duration", report.Duration))

	if err := errs.ErrorOrNil(); err != nil {
		report.Error = err.Error()
		return report, err
	}
	return report, nil
}

// indexPage indexes one crawled page. It reports whether the page was
// fully indexed: already-stored URLs are skipped, and a page whose
// document cannot be persisted keeps its document ID but gets no terms,
// so it can never surface in results with an unreadable body.
func (e *Engine) indexPage(ctx context.Context, page *model.ExtractedPage) bool {
	exists, err := e.store.HasURL(ctx, page.URL)
	if err != nil {
		e.logger.Warn("failed to check for existing URL",
			slog.String("url", page.URL),
			slog.String("error", err.Error()))
		return false
	}
	if exists {
		e.logger.Debug("URL already indexed", slog.String("url", page.URL))
		return false
	}

	docID := e.idx.AddDocument(model.DocumentMeta{
		URL:         page.URL,
		Title:       page.Title,
		Description: page.MetaDescription,
		CrawledAt:   page.FetchedAt,
	})

	doc := &model.Document{
		ID:              docID,
		URL:             page.URL,
		Title:           page.Title,
		BodyText:        page.BodyText,
		Headings:        page.Headings,
		MetaDescription: page.MetaDescription,
		CrawledAt:       page.FetchedAt,
	}
	if err := e.store.SaveDocument(ctx, doc); err != nil {
		e.logger.Warn("failed to persist document, skipping term indexing",
			slog.String("url", page.URL),
			slog.String("error", err.Error()))
		return false
	}

	e.indexTerms(docID, page)
	return true
}

// indexTerms feeds the page's token streams to the index. The title and
// heading streams are re-indexed by the integer part of their boost
// factors, which multiplies their term frequencies and appends one
// posting per repetition.
func (e *Engine) indexTerms(docID int, page *model.ExtractedPage) {
	title := e.tok.Tokenize(page.Title)
	for range int(e.cfg.Indexer.TitleBoost) {
		e.idx.IndexTerms(docID, title)
	}

	headings := e.tok.Tokenize(strings.Join(page.Headings, " "))
	for range int(e.cfg.Indexer.HeadingBoost) {
		e.idx.IndexTerms(docID, headings)
	}

	e.idx.IndexTerms(docID, e.tok.Tokenize(page.BodyText))
}

// LoadIndex replaces the in-memory index with the saved snapshot.
func (e *Engine) LoadIndex() error {
	idx, err := index.Load(e.cfg.SnapshotPath())
	if err != nil {
		return fmt.Errorf("failed to load index snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx = idx
	e.rebuildRankerLocked()
	metrics.SetIndexSize(idx.DocumentCount(), idx.TermCount())

	e.logger.Info("index snapshot loaded",
		slog.String("path", e.cfg.SnapshotPath()),
		slog.Int("documents", idx.DocumentCount()),
		slog.Int("terms", idx.TermCount()))
	return nil
}

// rebuildRankerLocked replaces the ranker after the index changed. The
// ranker caches per-term statistics for its lifetime, so a ranker built
// against an older index would score with stale frequencies. Callers
// hold e.mu, except during construction before the engine is shared.
func (e *Engine) rebuildRankerLocked() {
	ranker, err := rank.New(e.idx, e.strategy, rank.Options{TitleBoost: e.cfg.Ranking.TitleBoost})
	if err != nil {
		// The strategy was validated in New, so this cannot happen.
		e.logger.Error("failed to rebuild ranker", "error", err)
		return
	}
	e.ranker = ranker
}

// Search tokenizes the query, ranks the matching documents, and returns
// the requested page of results with snippets. A query that tokenizes
// to nothing returns an empty response without touching the cache. A
// non-positive limit returns everything from offset on.
func (e *Engine) Search(ctx context.Context, rawQuery string, limit, offset int) (*model.SearchResponse, error) {
	start := time.Now()

	tokens := e.tok.Tokenize(rawQuery)
	if len(tokens) == 0 {
		metrics.ObserveSearch(metrics.CacheBypass, time.Since(start))
		return &model.SearchResponse{
			Query:         rawQuery,
			Results:       []model.SearchResult{},
			ExecutionTime: time.Since(start).Seconds(),
		}, nil
	}

	resp, hit, err := e.qcache.GetOrCompute(ctx, tokens, limit, offset, func() (*model.SearchResponse, error) {
		return e.search(ctx, rawQuery, tokens, limit, offset, start), nil
	})
	if err != nil {
		return nil, err
	}
	if hit {
		// Cached responses are shared between callers. Copy before
		// stamping request-specific fields.
		shared := *resp
		shared.Query = rawQuery
		shared.ExecutionTime = time.Since(start).Seconds()
		resp = &shared
	}

	metrics.ObserveSearch(e.cacheLabel(hit), time.Since(start))
	return resp, nil
}

// search runs the ranking pipeline. With a configured cache it executes
// inside singleflight, so concurrent identical queries compute once.
func (e *Engine) search(ctx context.Context, rawQuery string, tokens []string, limit, offset int, start time.Time) *model.SearchResponse {
	e.mu.Lock()
	ranked := e.ranker.Rank(tokens, 0)
	e.mu.Unlock()

	page := paginate(ranked, limit, offset)
	for i := range page {
		page[i].Snippet = e.snippet(ctx, page[i].DocID, tokens)
	}

	return &model.SearchResponse{
		Query:         rawQuery,
		Results:       page,
		TotalResults:  len(ranked),
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// paginate slices the ranked results to the requested window. The
// result is never nil so responses encode as an empty JSON array.
func paginate(results []model.SearchResult, limit, offset int) []model.SearchResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []model.SearchResult{}
	}
	end := len(results)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return results[offset:end]
}

// snippet generates a query-aware snippet from the stored body text. A
// storage failure degrades to an empty snippet rather than failing the
// search.
func (e *Engine) snippet(ctx context.Context, docID int, tokens []string) string {
	doc, err := e.store.Document(ctx, docID)
	if err != nil {
		e.logger.Warn("failed to load document for snippet",
			slog.Int("doc_id", docID),
			slog.String("error", err.Error()))
		return ""
	}
	return e.snippets.Generate(doc.BodyText, tokens)
}

// cacheLabel maps a cache lookup outcome to its metrics label.
func (e *Engine) cacheLabel(hit bool) string {
	switch {
	case e.qcache == nil:
		return metrics.CacheBypass
	case hit:
		return metrics.CacheHit
	default:
		return metrics.CacheMiss
	}
}

// Stats reports the index dimensions, the stored document count, and
// the most recent crawl runs.
func (e *Engine) Stats(ctx context.Context) (*model.Stats, error) {
	stored, err := e.store.DocumentCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored documents: %w", err)
	}
	runs, err := e.store.CrawlRuns(ctx, recentRunLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return &model.Stats{
		Documents:             e.idx.DocumentCount(),
		Terms:                 e.idx.TermCount(),
		AverageDocumentLength: e.idx.AverageDocumentLength(),
		StoredDocuments:       stored,
		LastRuns:              runs,
	}, nil
}

// CacheStats returns the query cache hit and miss counts. Both are zero
// when no cache is configured.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.qcache.Stats()
}

// Close releases the document store and the query cache.
func (e *Engine) Close() error {
	var errs *multierror.Error
	if err := e.store.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to close document store: %w", err))
	}
	if err := e.qcache.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("failed to close query cache: %w", err))
	}
	return errs.ErrorOrNil()
}
