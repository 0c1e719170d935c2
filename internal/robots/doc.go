// Package robots implements the robots.txt politeness gate for the crawler.
//
// Each host's robots.txt is fetched at most once per TTL window and the
// parsed rules are cached. Hosts without a usable robots.txt (fetch error,
// non-200 response, unreadable body) are treated as fully permissive for
// the same window, so a flaky robots.txt endpoint is not re-fetched on
// every page.
//
// Design decision: The gate fails open because:
//  1. robots.txt is advisory; an unreachable file must not stall a crawl
//  2. A host that wants to opt out can serve the file with status 200
//  3. Failing closed would silently drop whole hosts on transient errors
package robots
