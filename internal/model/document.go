package model

import "time"

// Document is the persisted identity of an indexed page.
//
// Document IDs are positive integers allocated monotonically from 1 by the
// inverted index. The URL carries a uniqueness constraint in the document
// store: re-inserting an existing URL is rejected as a no-op, never an
// update. Documents are created once per successful indexing call and are
// never mutated or deleted afterwards.
type Document struct {
	// ID is the document identifier allocated by the inverted index.
	ID int `json:"id"`

	// URL is the normalized URL the document was crawled from. Unique.
	URL string `json:"url"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// BodyText is the full extracted body text. Stored so snippets can be
	// generated at query time without refetching.
	BodyText string `json:"body_text,omitempty"`

	// Headings holds the page headings in document order.
	Headings []string `json:"headings,omitempty"`

	// MetaDescription is the page's meta description.
	MetaDescription string `json:"meta_description,omitempty"`

	// CrawledAt is when the source page was fetched.
	CrawledAt time.Time `json:"crawled_at"`
}

// DocumentMeta is the slice of document data the inverted index keeps in
// memory and serializes into snapshots. Body text deliberately stays out:
// it lives in the document store and is only needed for snippets.
type DocumentMeta struct {
	// URL is the document's normalized URL.
	URL string `json:"url"`

	// Title is the page title, used for title-match boosting.
	Title string `json:"title,omitempty"`

	// Description is the page's meta description.
	Description string `json:"description,omitempty"`

	// CrawledAt is when the source page was fetched.
	CrawledAt time.Time `json:"crawled_at"`
}

// Meta returns the in-index metadata view of the document.
func (d *Document) Meta() DocumentMeta {
	return DocumentMeta{
		URL:         d.URL,
		Title:       d.Title,
		Description: d.MetaDescription,
		CrawledAt:   d.CrawledAt,
	}
}
