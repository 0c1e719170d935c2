package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/robots"
)

// testCrawlConfig returns a crawler configuration for fast tests: no
// politeness delay, no retries, robots checking off.
func testCrawlConfig(seeds ...string) config.CrawlerConfig {
	return config.CrawlerConfig{
		SeedURLs:      seeds,
		MaxDepth:      3,
		MaxPages:      100,
		MaxWorkers:    4,
		Timeout:       config.Duration(5 * time.Second),
		UserAgent:     "websearchbot-test/1.0",
		RetryAttempts: 0,
		RetryBackoff:  2.0,
	}
}

// newTestCrawler wires a Crawler with its own fetcher and a quiet logger.
func newTestCrawler(cfg config.CrawlerConfig, gate robots.Checker) *Crawler {
	logger := discardLogger()
	return New(cfg, NewFetcher(cfg, logger), gate, logger)
}

// denyChecker is a robots.Checker stub that denies the configured paths
// and counts how often it is consulted.
type denyChecker struct {
	denyPaths map[string]bool
	calls     atomic.Int32
}

func (d *denyChecker) Allowed(_ context.Context, rawURL string) bool {
	d.calls.Add(1)
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return !d.denyPaths[u.Path]
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}
}

func TestCrawlerCrawl(t *testing.T) {
	t.Parallel()

	t.Run("collects a single page site", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(
			`<html><head><title>Lonely</title></head><body>No links here</body></html>`))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)
		cfg.MaxPages = 5

		pages, stats, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(pages) != 1 {
			t.Fatalf("expected exactly 1 page, got %d", len(pages))
		}
		if pages[0].Title != "Lonely" {
			t.Errorf("expected title 'Lonely', got %q", pages[0].Title)
		}
		if stats.PagesCrawled != 1 || stats.URLsVisited != 1 {
			t.Errorf("expected 1 page crawled and 1 URL visited, got %+v", stats)
		}
		if stats.RobotsDenied != 0 || stats.FetchFailures != 0 {
			t.Errorf("expected clean run counters, got %+v", stats)
		}
	})

	t.Run("deduplicates identical seeds", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>Seed</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		cfg := testCrawlConfig(server.URL, server.URL)

		pages, stats, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected 1 page from duplicate seeds, got %d", len(pages))
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("expected 1 fetch, got %d", got)
		}
		if stats.URLsVisited != 1 {
			t.Errorf("expected 1 visited URL, got %d", stats.URLsVisited)
		}
	})

	t.Run("follows links within depth limit", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/root", htmlHandler(`<html><body><a href="/a">A</a><a href="/b">B</a></body></html>`))
		mux.HandleFunc("/a", htmlHandler(`<html><body><a href="/a1">A1</a></body></html>`))
		mux.HandleFunc("/a1", htmlHandler(`<html><body>Leaf</body></html>`))
		mux.HandleFunc("/b", htmlHandler(`<html><body>Leaf</body></html>`))

		server := httptest.NewServer(mux)
		defer server.Close()

		t.Run("depth 1 stops at children", func(t *testing.T) {
			cfg := testCrawlConfig(server.URL + "/root")
			cfg.MaxDepth = 1

			pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pages) != 3 {
				t.Errorf("expected 3 pages (root, a, b), got %d", len(pages))
			}
		})

		t.Run("depth 2 reaches grandchildren", func(t *testing.T) {
			cfg := testCrawlConfig(server.URL + "/root")
			cfg.MaxDepth = 2

			pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pages) != 4 {
				t.Errorf("expected 4 pages (root, a, b, a1), got %d", len(pages))
			}
		})

		t.Run("depth 0 crawls only the seed", func(t *testing.T) {
			cfg := testCrawlConfig(server.URL + "/root")
			cfg.MaxDepth = 0

			pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(pages) != 1 {
				t.Errorf("expected only the seed page, got %d", len(pages))
			}
		})
	})

	t.Run("strictly respects max pages", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/root", htmlHandler(
			`<html><body><a href="/p1">1</a><a href="/p2">2</a><a href="/p3">3</a><a href="/p4">4</a><a href="/p5">5</a></body></html>`))
		for _, p := range []string{"/p1", "/p2", "/p3", "/p4", "/p5"} {
			mux.HandleFunc(p, htmlHandler(`<html><body>Page</body></html>`))
		}

		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := testCrawlConfig(server.URL + "/root")
		cfg.MaxPages = 3

		pages, stats, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 3 {
			t.Errorf("expected exactly 3 pages, got %d", len(pages))
		}
		if stats.PagesCrawled != 3 {
			t.Errorf("expected PagesCrawled = 3, got %d", stats.PagesCrawled)
		}
	})

	t.Run("fetches each URL at most once", func(t *testing.T) {
		t.Parallel()

		var aHits, bHits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
			aHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body><a href="/b">B</a><a href="/a">Self</a></body></html>`))
		})
		mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
			bHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body><a href="/a">A</a><a href="/b">Self</a></body></html>`))
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := testCrawlConfig(server.URL + "/a")

		pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 2 {
			t.Errorf("expected 2 pages, got %d", len(pages))
		}
		if got := aHits.Load(); got != 1 {
			t.Errorf("expected /a fetched once, got %d", got)
		}
		if got := bHits.Load(); got != 1 {
			t.Errorf("expected /b fetched once, got %d", got)
		}
	})

	t.Run("stays on the seed domain by default", func(t *testing.T) {
		t.Parallel()

		var externalHits atomic.Int32
		external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			externalHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>External</body></html>`)) //nolint:errcheck
		}))
		defer external.Close()

		// The two test servers share 127.0.0.1 but listen on different
		// ports, which makes them different domains for link policy.
		server := httptest.NewServer(htmlHandler(
			`<html><body><a href="` + external.URL + `/page">Elsewhere</a></body></html>`))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)

		pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(pages))
		}
		if got := externalHits.Load(); got != 0 {
			t.Errorf("expected external server untouched, got %d hits", got)
		}
	})

	t.Run("follows external links when enabled", func(t *testing.T) {
		t.Parallel()

		var externalHits atomic.Int32
		external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			externalHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>External</body></html>`)) //nolint:errcheck
		}))
		defer external.Close()

		server := httptest.NewServer(htmlHandler(
			`<html><body><a href="` + external.URL + `/page">Elsewhere</a></body></html>`))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)
		cfg.FollowExternalLinks = true

		pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 2 {
			t.Errorf("expected 2 pages, got %d", len(pages))
		}
		if got := externalHits.Load(); got != 1 {
			t.Errorf("expected 1 external fetch, got %d", got)
		}
	})

	t.Run("robots denial skips fetch but marks visited", func(t *testing.T) {
		t.Parallel()

		var secretHits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/root", htmlHandler(
			`<html><body><a href="/public">Public</a><a href="/secret">Secret</a></body></html>`))
		mux.HandleFunc("/public", htmlHandler(`<html><body>Public</body></html>`))
		mux.HandleFunc("/secret", func(w http.ResponseWriter, _ *http.Request) {
			secretHits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body>Secret</body></html>`)) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := testCrawlConfig(server.URL + "/root")
		cfg.RespectRobotsTxt = true
		gate := &denyChecker{denyPaths: map[string]bool{"/secret": true}}

		pages, stats, err := newTestCrawler(cfg, gate).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(pages) != 2 {
			t.Errorf("expected 2 pages (root, public), got %d", len(pages))
		}
		if got := secretHits.Load(); got != 0 {
			t.Errorf("expected denied URL to never reach the server, got %d hits", got)
		}
		if stats.RobotsDenied != 1 {
			t.Errorf("expected 1 robots denial, got %d", stats.RobotsDenied)
		}
		// The denied URL still counts as visited, so it is never
		// reconsidered.
		if stats.URLsVisited != 3 {
			t.Errorf("expected 3 visited URLs, got %d", stats.URLsVisited)
		}
	})

	t.Run("gate unused when robots disabled", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(`<html><body>Open</body></html>`))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)
		cfg.RespectRobotsTxt = false
		gate := &denyChecker{denyPaths: map[string]bool{"": true}}

		pages, _, err := newTestCrawler(cfg, gate).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(pages))
		}
		if got := gate.calls.Load(); got != 0 {
			t.Errorf("expected gate to never be consulted, got %d calls", got)
		}
	})

	t.Run("nil gate admits everything", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(`<html><body>Open</body></html>`))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)
		cfg.RespectRobotsTxt = true

		pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Errorf("expected 1 page, got %d", len(pages))
		}
	})

	t.Run("counts fetch failures and continues", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/root", htmlHandler(
			`<html><body><a href="/broken">Broken</a><a href="/ok">OK</a></body></html>`))
		mux.HandleFunc("/ok", htmlHandler(`<html><body>Fine</body></html>`))
		mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := testCrawlConfig(server.URL + "/root")

		pages, stats, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 2 {
			t.Errorf("expected 2 pages despite the broken URL, got %d", len(pages))
		}
		if stats.FetchFailures != 1 {
			t.Errorf("expected 1 fetch failure, got %d", stats.FetchFailures)
		}
		if stats.URLsVisited != 3 {
			t.Errorf("expected 3 visited URLs, got %d", stats.URLsVisited)
		}
	})

	t.Run("returns ErrNoSeeds without seeds", func(t *testing.T) {
		t.Parallel()

		cfg := testCrawlConfig()

		_, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		if !errors.Is(err, config.ErrNoSeeds) {
			t.Fatalf("expected ErrNoSeeds, got %v", err)
		}
	})

	t.Run("context cancellation returns partial results", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`<html><body>Slow</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		cfg := testCrawlConfig(server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		pages, stats, err := newTestCrawler(cfg, nil).Crawl(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
		if len(pages) != 0 {
			t.Errorf("expected no completed pages, got %d", len(pages))
		}
		if stats == nil {
			t.Fatal("expected stats even on cancellation")
		}
	})

	t.Run("observes politeness delay between fetches", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/a", htmlHandler(`<html><body><a href="/b">B</a></body></html>`))
		mux.HandleFunc("/b", htmlHandler(`<html><body><a href="/c">C</a></body></html>`))
		mux.HandleFunc("/c", htmlHandler(`<html><body>End</body></html>`))

		server := httptest.NewServer(mux)
		defer server.Close()

		cfg := testCrawlConfig(server.URL + "/a")
		cfg.MaxWorkers = 1
		cfg.PolitenessDelay = config.Duration(50 * time.Millisecond)

		start := time.Now()
		pages, _, err := newTestCrawler(cfg, nil).Crawl(context.Background())
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(pages))
		}
		// One delay after each of the three fetch sequences.
		if elapsed < 150*time.Millisecond {
			t.Errorf("expected at least 150ms elapsed with politeness delays, got %v", elapsed)
		}
	})
}
