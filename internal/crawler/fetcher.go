package crawler

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/extract"
	"github.com/nao1215/websearch/internal/model"
)

// maxRedirects caps redirect chains per request. Ten allows the usual
// http-to-https and trailing-slash hops while cutting off redirect loops.
const maxRedirects = 10

// Fetcher downloads single pages over HTTP and hands the bytes to the
// extraction parser. It retries failed fetches with exponential backoff.
//
// A Fetcher is safe for concurrent use: all mutable state lives in the
// http.Client, which manages its own connection pool.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	retryAttempts int
	retryBackoff  float64
	logger        *slog.Logger
}

// NewFetcher creates a Fetcher from the crawler configuration.
// A nil logger falls back to slog.Default().
func NewFetcher(cfg config.CrawlerConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		// Pool settings sized for a small worker count revisiting the
		// same few hosts over and over.
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	if cfg.InsecureSkipTLS {
		// Opt-in only, for intranet crawls against self-signed
		// certificates.
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // Explicit opt-in via insecure_skip_tls
		}
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout.Std(),
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  cfg.RetryBackoff,
		logger:        logger,
	}
}

// Fetch downloads pageURL and returns the extracted page. It makes up to
// retryAttempts+1 attempts; any network error or non-2xx status counts as
// a failed attempt. Before retry k the fetcher sleeps backoff^(k-1)
// seconds, so with the default backoff of 2 the delays run 1s, 2s, 4s.
//
// Context cancellation aborts both in-flight requests and backoff sleeps.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*model.ExtractedPage, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retryAttempts; attempt++ {
		if attempt > 0 {
			if err := f.waitBackoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		page, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Debug("fetch attempt failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", f.retryAttempts+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

// waitBackoff sleeps the exponential delay that precedes retry number
// attempt, or returns early when the context is cancelled.
func (f *Fetcher) waitBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(math.Pow(f.retryBackoff, float64(attempt-1)) * float64(time.Second))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// fetchOnce performs a single GET and parses the response body.
func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string) (*model.ExtractedPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	// Read body with limit so a huge response cannot exhaust memory.
	body, err := io.ReadAll(io.LimitReader(resp.Body, model.MaxBodySize))
	if err != nil {
		return nil, err
	}

	return extract.ParsePage(pageURL, resp.StatusCode, body, time.Now())
}
