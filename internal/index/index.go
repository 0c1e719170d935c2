package index

import "github.com/nao1215/websearch/internal/model"

// Index is an in-memory inverted index: term to posting lists, document
// ID to metadata. Build it with AddDocument and IndexTerms, query it with
// Postings and Document.
//
// An Index must not be mutated concurrently with reads or other
// mutations. See the package documentation.
type Index struct {
	postings    map[string][]model.Posting
	documents   map[int]model.DocumentMeta
	docLengths  map[int]int
	totalTokens int
	count       int
	nextID      int
}

// New creates an empty index. Document IDs are allocated from 1.
func New() *Index {
	return &Index{
		postings:   make(map[string][]model.Posting),
		documents:  make(map[int]model.DocumentMeta),
		docLengths: make(map[int]int),
		nextID:     1,
	}
}

// AddDocument registers document metadata, increments the document count,
// and returns the freshly allocated document ID. The index performs no
// URL uniqueness check; deduplication belongs to the document store.
func (i *Index) AddDocument(meta model.DocumentMeta) int {
	id := i.nextID
	i.nextID++
	i.documents[id] = meta
	i.count++
	return id
}

// IndexTerms records one token stream for a document. Each distinct term
// in the stream contributes exactly one new posting carrying the term's
// frequency and 0-based positions within this stream.
//
// Calling IndexTerms again for the same document appends further postings
// instead of merging with earlier ones. Field boosting depends on this:
// a title stream indexed twice yields two postings per title term, which
// inflates the term's document frequency as seen by scoring.
func (i *Index) IndexTerms(docID int, terms []string) {
	if len(terms) == 0 {
		return
	}

	positions := make(map[string][]int, len(terms))
	order := make([]string, 0, len(terms))
	for pos, term := range terms {
		if _, seen := positions[term]; !seen {
			order = append(order, term)
		}
		positions[term] = append(positions[term], pos)
	}

	// Appending in first-occurrence order keeps posting lists identical
	// across runs for identical input.
	for _, term := range order {
		pos := positions[term]
		i.postings[term] = append(i.postings[term], model.Posting{
			DocID:     docID,
			Frequency: len(pos),
			Positions: pos,
		})
	}

	i.docLengths[docID] += len(terms)
	i.totalTokens += len(terms)
}

// Postings returns the postings recorded for a term in append order, or
// an empty slice for an unseen term. The slice is shared with the index;
// callers must not modify it.
func (i *Index) Postings(term string) []model.Posting {
	return i.postings[term]
}

// Document returns the metadata registered under a document ID.
func (i *Index) Document(docID int) (model.DocumentMeta, bool) {
	meta, ok := i.documents[docID]
	return meta, ok
}

// DocumentCount returns the number of registered documents.
func (i *Index) DocumentCount() int {
	return i.count
}

// TermCount returns the number of distinct indexed terms.
func (i *Index) TermCount() int {
	return len(i.postings)
}

// DocumentLength returns the total number of tokens indexed for a
// document across all IndexTerms calls, boost repeats included. Zero for
// unknown documents and for documents indexed without terms.
func (i *Index) DocumentLength(docID int) int {
	return i.docLengths[docID]
}

// AverageDocumentLength returns the mean token count per registered
// document, or 0 for an empty index.
func (i *Index) AverageDocumentLength() float64 {
	if i.count == 0 {
		return 0
	}
	return float64(i.totalTokens) / float64(i.count)
}
