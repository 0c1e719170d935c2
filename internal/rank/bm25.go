package rank

import (
	"math"

	"github.com/nao1215/websearch/internal/index"
)

// Okapi BM25 parameters, standard values from the literature.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// bm25 scores a term for a document with Okapi BM25.
//
// Unlike tfidf it aggregates the frequencies of every posting for the
// (term, document) pair and normalizes by the document's token length
// against the corpus average, so long documents do not win on raw
// repetition alone. df still counts postings, not distinct documents.
type bm25 struct {
	index    *index.Index
	idfCache map[string]float64
}

func newBM25(idx *index.Index) *bm25 {
	return &bm25{index: idx, idfCache: make(map[string]float64)}
}

func (s *bm25) score(term string, docID int) float64 {
	idf := s.idf(term)
	if idf == 0 {
		return 0
	}
	tf := s.tf(term, docID)
	if tf == 0 {
		return 0
	}
	avg := s.index.AverageDocumentLength()
	if avg == 0 {
		return 0
	}

	lengthRatio := float64(s.index.DocumentLength(docID)) / avg
	norm := tf + bm25K1*(1-bm25B+bm25B*lengthRatio)
	return idf * (tf * (bm25K1 + 1)) / norm
}

// idf returns ln((N - df + 0.5) / (df + 0.5) + 1), cached per term for
// the scorer's lifetime. Unseen terms score zero and are not cached.
func (s *bm25) idf(term string) float64 {
	if v, ok := s.idfCache[term]; ok {
		return v
	}

	df := len(s.index.Postings(term))
	if df == 0 {
		return 0
	}
	n := float64(s.index.DocumentCount())

	v := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	s.idfCache[term] = v
	return v
}

// tf sums the frequencies of every posting for term whose document
// matches docID.
func (s *bm25) tf(term string, docID int) float64 {
	var total int
	for _, posting := range s.index.Postings(term) {
		if posting.DocID == docID {
			total += posting.Frequency
		}
	}
	return float64(total)
}
