package model

// Posting records one contribution of a term to a document: how often the
// term occurred in a single indexing call and at which token offsets.
//
// A term may hold multiple postings for the same document when the document
// was indexed in more than one call (title tokens and body tokens are
// indexed separately, and boosted fields repeat whole token streams).
// Postings are never merged; consumers that want a per-document frequency
// must decide how to treat the duplicates.
type Posting struct {
	// DocID is the document the term occurred in.
	DocID int `json:"doc_id"`

	// Frequency is the number of occurrences contributed by one indexing
	// call, not an aggregate across calls.
	Frequency int `json:"frequency"`

	// Positions holds the 0-based token offsets of each occurrence within
	// the token stream of the call that produced this posting.
	// len(Positions) == Frequency always holds.
	Positions []int `json:"positions"`
}

// SearchResult is one ranked document returned for a query.
type SearchResult struct {
	// DocID identifies the matched document.
	DocID int `json:"doc_id"`

	// URL is the document's URL.
	URL string `json:"url"`

	// Title is the document title.
	Title string `json:"title"`

	// Description is the document's meta description.
	Description string `json:"description,omitempty"`

	// Score is the relevance score under the configured ranking strategy.
	Score float64 `json:"score"`

	// Snippet is a short body excerpt chosen for the query. Filled by the
	// search path, not by the ranker itself.
	Snippet string `json:"snippet,omitempty"`
}

// SearchResponse is the full answer to one search request.
type SearchResponse struct {
	// Query is the raw query string as received.
	Query string `json:"query"`

	// Results holds the ranked results for the requested page.
	Results []SearchResult `json:"results"`

	// TotalResults counts the full ranked set before pagination.
	TotalResults int `json:"total_results"`

	// ExecutionTime is the search duration in seconds.
	ExecutionTime float64 `json:"execution_time"`
}
