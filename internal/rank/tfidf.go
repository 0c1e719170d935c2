package rank

import (
	"math"

	"github.com/nao1215/websearch/internal/index"
)

// tfidf scores a term for a document as tf * idf.
//
// Both statistics treat the posting list literally. df is the number of
// postings, so a document re-indexed for a boosted field counts more than
// once; tf is the frequency of the first posting for the document, so
// later postings for the same pair never add up. A term whose postings
// outnumber the documents therefore gets a negative idf and can push a
// total score below the cutoff.
type tfidf struct {
	index    *index.Index
	idfCache map[string]float64
}

func newTFIDF(idx *index.Index) *tfidf {
	return &tfidf{index: idx, idfCache: make(map[string]float64)}
}

func (s *tfidf) score(term string, docID int) float64 {
	return s.tf(term, docID) * s.idf(term)
}

// idf returns ln(N / df), cached per term for the scorer's lifetime.
// Unseen terms score zero and are not cached.
func (s *tfidf) idf(term string) float64 {
	if v, ok := s.idfCache[term]; ok {
		return v
	}

	postings := s.index.Postings(term)
	if len(postings) == 0 {
		return 0
	}
	n := s.index.DocumentCount()
	if n == 0 {
		return 0
	}

	v := math.Log(float64(n) / float64(len(postings)))
	s.idfCache[term] = v
	return v
}

// tf returns the frequency of the first posting for term whose document
// matches docID, or zero when none does.
func (s *tfidf) tf(term string, docID int) float64 {
	for _, posting := range s.index.Postings(term) {
		if posting.DocID == docID {
			return float64(posting.Frequency)
		}
	}
	return 0
}
