// Package model defines the core data structures used throughout websearch.
//
// This package contains the following main types:
//   - ExtractedPage: A crawled web page with its parsed content
//   - Document: The persisted identity of an indexed page
//   - Posting: A single (document, frequency, positions) index record
//   - SearchResult / SearchResponse: Ranked query output
//   - CrawlReport: The summary of one crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, index, rank, storage, report) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for index snapshots,
// API responses, and report output.
package model
