// Package index implements the in-memory inverted index at the heart of
// websearch: a mapping from terms to posting lists plus a registry of
// document metadata, with JSON snapshot persistence.
//
// The index is built in two steps per document. AddDocument registers the
// metadata and allocates the document ID; IndexTerms then records one or
// more token streams against that ID. Boosted fields (title, headings)
// are indexed by repeating whole token streams, so a term can hold several
// postings for one document. The index never merges them; how duplicates
// contribute to scoring is the ranking engine's decision.
//
// Design decision: The index does not lock. Building and loading happen
// strictly before searching in every pipeline (crawl-then-index runs,
// snapshot loads at startup), and searches only read, so the type stays
// as simple as the single-threaded structure it models.
package index
