// Package engine ties the crawl, indexing, storage, and ranking stages
// into one search engine.
//
// The crawl stage is concurrent; everything after it runs over
// materialized data under a single mutex. Crawl fetches pages, assigns
// document IDs, persists documents, indexes their token streams, and
// snapshots the index. Search tokenizes a query, consults the optional
// Redis cache, ranks, paginates, and attaches snippets generated from
// the stored body text.
package engine
