// Package crawler discovers and fetches web pages for indexing.
//
// # Architecture
//
// The crawler package is designed around three cooperating types. The
// Frontier owns the URL queue and the visited set under a single lock, so
// claiming a URL and marking it visited is one atomic step and no two
// workers can fetch the same page. The Fetcher retrieves one page with
// retries and hands the body to the extract package. The Crawler runs a
// fixed pool of workers that drain the frontier until it is empty or the
// page cap is reached.
//
// Design decision: We implement our own crawler rather than using a
// third-party framework because:
//  1. The frontier semantics (mark-before-fetch, strict page cap) are the
//     core of this system and need to be exact
//  2. The fetch path is plain HTTP GET with retries; a framework adds
//     nothing but indirection
//  3. Reduces external dependencies and potential security issues
//
// # Politeness
//
// The crawler is designed to be polite:
//   - Respects robots.txt per host with a cached 24 hour TTL (configurable off)
//   - Delays between requests from the same worker (configurable)
//   - Limits concurrent workers
//   - Respects max depth and max page settings
//
// # Usage
//
//	fetcher := crawler.NewFetcher(cfg, logger)
//	gate := robots.NewGate(cfg.UserAgent, robots.Options{})
//	c := crawler.New(cfg, fetcher, gate, logger)
//	pages, stats, err := c.Crawl(ctx)
package crawler
