package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/index"
	"github.com/nao1215/websearch/internal/model"
)

// Strategy selects the scoring algorithm. The set is closed: construction
// fails for values outside it.
type Strategy int

const (
	// StrategyTFIDF scores with term frequency times inverse document
	// frequency. The default.
	StrategyTFIDF Strategy = iota
	// StrategyBM25 scores with Okapi BM25.
	StrategyBM25
)

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyTFIDF:
		return config.AlgorithmTFIDF
	case StrategyBM25:
		return config.AlgorithmBM25
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configured algorithm name to its Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case config.AlgorithmTFIDF:
		return StrategyTFIDF, nil
	case config.AlgorithmBM25:
		return StrategyBM25, nil
	default:
		return 0, fmt.Errorf("%w: %q", config.ErrUnknownAlgorithm, name)
	}
}

// Options tunes scoring independently of the strategy.
type Options struct {
	// TitleBoost multiplies a token's score when the token is a
	// case-insensitive substring of the document title.
	TitleBoost float64
}

// scorer is the per-strategy core: the score of one query term for one
// candidate document.
type scorer interface {
	score(term string, docID int) float64
}

// Ranker orders documents by relevance to query tokens.
//
// A Ranker caches per-term statistics for its lifetime. Rebuild it after
// the index changes, or cached values go stale.
type Ranker struct {
	index      *index.Index
	strategy   Strategy
	titleBoost float64
	scorer     scorer
}

// New builds a Ranker over idx using the given strategy.
func New(idx *index.Index, strategy Strategy, opts Options) (*Ranker, error) {
	r := &Ranker{index: idx, strategy: strategy, titleBoost: opts.TitleBoost}
	switch strategy {
	case StrategyTFIDF:
		r.scorer = newTFIDF(idx)
	case StrategyBM25:
		r.scorer = newBM25(idx)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownAlgorithm, strategy)
	}
	return r, nil
}

// Strategy returns the strategy the Ranker was built with.
func (r *Ranker) Strategy() Strategy {
	return r.strategy
}

// Rank scores every document reachable from the query tokens and returns
// them ordered by descending score, carrying metadata from the index.
//
// Tokens absent from the index contribute nothing and do not disqualify
// the query. Documents whose total score is zero or negative are dropped.
// The sort is stable over first-encountered candidate order, so equal
// scores keep that order. A maxResults of zero or less returns the full
// ranked set.
func (r *Ranker) Rank(queryTokens []string, maxResults int) []model.SearchResult {
	results := make([]model.SearchResult, 0)
	for _, docID := range r.candidates(queryTokens) {
		meta, ok := r.index.Document(docID)
		if !ok {
			continue
		}
		score := r.scoreDocument(queryTokens, docID, meta.Title)
		if score <= 0 {
			continue
		}
		results = append(results, model.SearchResult{
			DocID:       docID,
			URL:         meta.URL,
			Title:       meta.Title,
			Description: meta.Description,
			Score:       score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// candidates returns the union of docIDs across the query tokens' posting
// lists, deduplicated, in first-encountered order.
func (r *Ranker) candidates(queryTokens []string) []int {
	seen := make(map[int]bool)
	var order []int
	for _, term := range queryTokens {
		for _, posting := range r.index.Postings(term) {
			if !seen[posting.DocID] {
				seen[posting.DocID] = true
				order = append(order, posting.DocID)
			}
		}
	}
	return order
}

func (r *Ranker) scoreDocument(queryTokens []string, docID int, title string) float64 {
	titleLower := strings.ToLower(title)
	var total float64
	for _, term := range queryTokens {
		s := r.scorer.score(term, docID)
		if strings.Contains(titleLower, strings.ToLower(term)) {
			s *= r.titleBoost
		}
		total += s
	}
	return total
}
