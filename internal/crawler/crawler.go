package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/robots"
)

// Crawler runs a bounded concurrent crawl from the configured seed URLs.
// Construct with New and run with Crawl; a Crawler is single-use per run
// only in the sense that each Crawl call starts from a fresh frontier.
type Crawler struct {
	cfg     config.CrawlerConfig
	fetcher *Fetcher
	gate    robots.Checker
	logger  *slog.Logger
}

// New creates a Crawler. The gate decides robots.txt admission per URL;
// a nil gate admits everything, as does setting respect_robots_txt to
// false. A nil logger falls back to slog.Default().
func New(cfg config.CrawlerConfig, fetcher *Fetcher, gate robots.Checker, logger *slog.Logger) *Crawler {
	if gate == nil {
		gate = robots.AllowAll()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		gate:    gate,
		logger:  logger,
	}
}

// Crawl runs workers against the frontier until it drains or MaxPages
// pages have been collected, whichever comes first. Pages come back in
// completion order, which is not deterministic across runs.
//
// Cancelling the context stops every worker between steps and inside
// delays; Crawl then returns the pages collected so far together with the
// context error, so a partial crawl is still usable.
func (c *Crawler) Crawl(ctx context.Context) ([]*model.ExtractedPage, *model.CrawlStats, error) {
	if len(c.cfg.SeedURLs) == 0 {
		return nil, nil, config.ErrNoSeeds
	}

	c.logger.Info("starting crawl",
		slog.Int("seeds", len(c.cfg.SeedURLs)),
		slog.Int("max_pages", c.cfg.MaxPages),
		slog.Int("max_depth", c.cfg.MaxDepth),
		slog.Int("workers", c.cfg.MaxWorkers))

	frontier := NewFrontier()
	for _, seed := range c.cfg.SeedURLs {
		frontier.Enqueue(NormalizeURL(seed), 0)
	}

	col := &collector{max: c.cfg.MaxPages}

	g, ctx := errgroup.WithContext(ctx)
	for range c.cfg.MaxWorkers {
		g.Go(func() error {
			return c.worker(ctx, frontier, col)
		})
	}
	err := g.Wait()

	pages, robotsDenied, fetchFailures := col.result()
	stats := &model.CrawlStats{
		URLsVisited:   frontier.VisitedCount(),
		PagesCrawled:  len(pages),
		RobotsDenied:  robotsDenied,
		FetchFailures: fetchFailures,
	}

	c.logger.Info("crawl finished",
		slog.Int("pages", stats.PagesCrawled),
		slog.Int("visited", stats.URLsVisited),
		slog.Int("robots_denied", stats.RobotsDenied),
		slog.Int("fetch_failures", stats.FetchFailures))

	return pages, stats, err
}

// worker runs the dequeue-fetch-enqueue loop. It exits when the frontier
// is momentarily empty, when the page cap is reached, or when the context
// is cancelled. "Momentarily empty" means a worker can exit while another
// worker is still fetching a page whose links would refill the queue; the
// remaining workers pick that work up, and the last worker drains it.
func (c *Crawler) worker(ctx context.Context, frontier *Frontier, col *collector) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if col.full() {
			return nil
		}

		pageURL, depth, ok := frontier.Next()
		if !ok {
			return nil
		}

		// Robots denial skips the URL entirely: no fetch, no delay.
		// The URL stays in the visited set so it is never retried.
		if c.cfg.RespectRobotsTxt && !c.gate.Allowed(ctx, pageURL) {
			col.denyRobots()
			c.logger.Info("skipped by robots.txt", slog.String("url", pageURL))
			continue
		}

		page, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			col.failFetch()
			c.logger.Warn("fetch failed",
				slog.String("url", pageURL),
				slog.String("error", err.Error()))
		} else {
			c.logger.Debug("crawled page",
				slog.String("url", pageURL),
				slog.Int("depth", depth),
				slog.Int("links", len(page.OutboundLinks)))
			if !col.add(page) {
				// Cap reached while this fetch was in flight.
				return nil
			}
			c.enqueueLinks(frontier, pageURL, depth, page.OutboundLinks)
		}

		// Politeness delay after every fetch sequence, successful or
		// not.
		if err := c.politenessWait(ctx); err != nil {
			return err
		}
	}
}

// enqueueLinks adds a page's followable outbound links at depth+1, unless
// that would exceed the depth limit.
func (c *Crawler) enqueueLinks(frontier *Frontier, pageURL string, depth int, links []string) {
	if depth+1 > c.cfg.MaxDepth {
		return
	}
	for _, link := range links {
		normalized := NormalizeURL(link)
		if ShouldFollowLink(pageURL, normalized, c.cfg.FollowExternalLinks) {
			frontier.Enqueue(normalized, depth+1)
		}
	}
}

// politenessWait sleeps the configured inter-request delay, or returns
// early when the context is cancelled.
func (c *Crawler) politenessWait(ctx context.Context) error {
	delay := c.cfg.PolitenessDelay.Std()
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// collector accumulates crawled pages and per-run counters under one
// mutex. The page cap is enforced at add time, so the collection never
// holds more than max pages even when several workers complete fetches
// simultaneously.
type collector struct {
	mu            sync.Mutex
	pages         []*model.ExtractedPage
	max           int
	robotsDenied  int
	fetchFailures int
}

// add appends a page unless the cap is already reached. It reports
// whether the page was kept.
func (c *collector) add(p *model.ExtractedPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pages) >= c.max {
		return false
	}
	c.pages = append(c.pages, p)
	return true
}

// full reports whether the cap is reached.
func (c *collector) full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages) >= c.max
}

// denyRobots counts a robots.txt denial.
func (c *collector) denyRobots() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.robotsDenied++
}

// failFetch counts a URL dropped after retry exhaustion.
func (c *collector) failFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchFailures++
}

// result returns the collected pages and counters.
func (c *collector) result() ([]*model.ExtractedPage, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages, c.robotsDenied, c.fetchFailures
}
