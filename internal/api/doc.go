// Package api exposes the search engine over HTTP.
//
// The server answers queries against an index that was built beforehand
// by the crawl command, so every endpoint is read-only: search, stats,
// health and Prometheus metrics.
//
// Design decision: Handlers depend on the small Searcher interface
// rather than the concrete engine because:
// 1. Tests can drive every handler with an in-memory fake
// 2. The HTTP layer stays free of crawl and storage concerns
// 3. The engine package never needs to know HTTP exists
package api
