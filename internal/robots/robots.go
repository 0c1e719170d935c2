package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/temoto/robotstxt"
)

const (
	// DefaultTTL is how long fetched robots.txt rules stay cached per host.
	DefaultTTL = 24 * time.Hour

	// fetchTimeout bounds a single robots.txt request. It is shorter than
	// the page fetch timeout; a slow robots.txt must not hold up a worker.
	fetchTimeout = 5 * time.Second

	// maxRobotsSize caps how much of a robots.txt body is read.
	maxRobotsSize = 1 << 20
)

// Checker decides whether the crawler may fetch a URL.
type Checker interface {
	// Allowed reports whether rawURL may be fetched. Unparseable URLs are
	// not allowed.
	Allowed(ctx context.Context, rawURL string) bool
}

// AllowAll returns a Checker that permits every URL. It backs the
// respect_robots_txt=false configuration.
func AllowAll() Checker { return allowAll{} }

type allowAll struct{}

func (allowAll) Allowed(context.Context, string) bool { return true }

// Options configures a Gate. The zero value is usable; every field has a
// default.
type Options struct {
	// Client performs the robots.txt requests. Defaults to a dedicated
	// client; the per-request timeout is enforced via context either way.
	Client *http.Client

	// Clock is the time source for cache expiry. Defaults to the wall
	// clock; tests substitute a controllable clock.
	Clock clock.Clock

	// TTL is the per-host cache lifetime. Defaults to DefaultTTL.
	TTL time.Duration

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// Gate fetches, caches, and evaluates robots.txt rules per host.
// It is safe for concurrent use by the crawl workers.
type Gate struct {
	client    *http.Client
	userAgent string
	clk       clock.Clock
	ttl       time.Duration
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]entry
}

// entry is one cached per-host result. A nil data means the host had no
// usable robots.txt and everything is allowed until expiry.
type entry struct {
	data    *robotstxt.RobotsData
	expires time.Time
}

// NewGate creates a robots.txt gate identifying itself as userAgent.
func NewGate(userAgent string, opts Options) *Gate {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Gate{
		client:    opts.Client,
		userAgent: userAgent,
		clk:       opts.Clock,
		ttl:       opts.TTL,
		logger:    opts.Logger,
		cache:     make(map[string]entry),
	}
}

// Allowed implements Checker.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data := g.load(ctx, parsed)
	if data == nil {
		return true
	}

	group := data.FindGroup(g.userAgent)
	if group == nil {
		return true
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// load returns the cached rules for the URL's host, fetching them if the
// cache entry is missing or expired.
func (g *Gate) load(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	key := parsed.Scheme + "://" + strings.ToLower(parsed.Host)
	now := g.clk.Now()

	g.mu.Lock()
	if e, ok := g.cache[key]; ok && now.Before(e.expires) {
		g.mu.Unlock()
		return e.data
	}
	g.mu.Unlock()

	// The fetch happens outside the lock so one slow host cannot block
	// checks for every other host. Two workers may race to fetch the same
	// robots.txt once per TTL window; the duplicate request is harmless.
	data := g.fetch(ctx, parsed)

	g.mu.Lock()
	g.cache[key] = entry{data: data, expires: now.Add(g.ttl)}
	g.mu.Unlock()

	return data
}

// fetch retrieves and parses one robots.txt. Any failure yields nil, which
// callers treat as fully permissive.
func (g *Gate) fetch(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	robotsURL := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/robots.txt"}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		g.logger.Debug("robots.txt request build failed; allowing host",
			"host", parsed.Host, "error", err)
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("robots.txt fetch failed; allowing host",
			"host", parsed.Host, "error", err)
		return nil
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Debug("failed to close robots.txt body", "error", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("robots.txt unavailable; allowing host",
			"host", parsed.Host, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		g.logger.Debug("robots.txt read failed; allowing host",
			"host", parsed.Host, "error", err)
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		g.logger.Debug("robots.txt parse failed; allowing host",
			"host", parsed.Host, "error", err)
		return nil
	}
	return data
}
