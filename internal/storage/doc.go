// Package storage persists crawled documents and crawl run records.
//
// Two backends implement the same Store contract: SQLite for local,
// zero-setup use and PostgreSQL for shared deployments. The storagetest
// package holds a conformance suite both backends run, which keeps their
// observable behavior identical.
//
// Documents are write-once. A URL can be stored exactly once; saving it
// again fails with ErrDuplicateURL and never updates the existing row.
// Body text lives here rather than in the index snapshot, so snippets can
// be generated at query time without refetching pages.
package storage
