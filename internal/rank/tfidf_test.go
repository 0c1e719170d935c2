package rank

import (
	"math"
	"reflect"
	"testing"

	"github.com/nao1215/websearch/internal/index"
	"github.com/nao1215/websearch/internal/model"
)

// boostedIndex indexes one document the way the engine does for a title
// boost of 2: the title stream twice, then the body stream once.
func boostedIndex() (*index.Index, int) {
	idx := index.New()
	id := idx.AddDocument(model.DocumentMeta{URL: "https://example.com/go", Title: "Go Guide"})
	idx.IndexTerms(id, []string{"go", "guide"})
	idx.IndexTerms(id, []string{"go", "guide"})
	idx.IndexTerms(id, []string{"go", "go", "tour"})
	return idx, id
}

func TestTFIDFTermFrequency(t *testing.T) {
	t.Parallel()

	idx, id := boostedIndex()
	scorer := newTFIDF(idx)

	// Three postings exist for ("go", id) with frequencies 1, 1 and 2.
	// Only the first one counts.
	if got := scorer.tf("go", id); got != 1 {
		t.Errorf("expected tf 1 from the first posting, got %v", got)
	}
	if got := scorer.tf("tour", id); got != 1 {
		t.Errorf("expected tf 1, got %v", got)
	}
	if got := scorer.tf("go", 99); got != 0 {
		t.Errorf("expected tf 0 for unknown document, got %v", got)
	}
	if got := scorer.tf("absent", id); got != 0 {
		t.Errorf("expected tf 0 for unseen term, got %v", got)
	}
}

func TestTFIDFInverseDocumentFrequency(t *testing.T) {
	t.Parallel()

	idx, _ := boostedIndex()
	for range 3 {
		addDoc(idx, "Filler", "filler")
	}
	scorer := newTFIDF(idx)

	// One document, three postings: df counts postings, so idf is
	// ln(4/3) rather than ln(4/1).
	if got, want := scorer.idf("go"), math.Log(4.0/3.0); !almostEqual(got, want) {
		t.Errorf("idf = %v, want %v", got, want)
	}
	if got := scorer.idf("absent"); got != 0 {
		t.Errorf("expected idf 0 for unseen term, got %v", got)
	}
	// Three documents, one posting each: same df, same idf.
	if got := scorer.idf("filler"); !almostEqual(got, math.Log(4.0/3.0)) {
		t.Errorf("idf = %v, want %v", got, math.Log(4.0/3.0))
	}
}

func TestTFIDFNegativeIdfSuppressesResults(t *testing.T) {
	t.Parallel()

	// Boosting left three postings for "common" across two documents,
	// so idf = ln(2/3) < 0 and the only match scores below the cutoff.
	idx := index.New()
	id := idx.AddDocument(model.DocumentMeta{URL: "https://example.com/c", Title: "Common"})
	idx.IndexTerms(id, []string{"common"})
	idx.IndexTerms(id, []string{"common"})
	idx.IndexTerms(id, []string{"common"})
	addDoc(idx, "Unique", "unique")

	if results := newTestRanker(t, idx, StrategyTFIDF).Rank([]string{"common"}, 10); len(results) != 0 {
		t.Errorf("expected negative score to be dropped, got %v", results)
	}
}

func TestTFIDFRareTermOutranksCommonTerm(t *testing.T) {
	t.Parallel()

	idx := index.New()
	d1 := addDoc(idx, "Hello World", "hello", "world")
	addDoc(idx, "Hello", "hello")

	// "hello" appears everywhere, so its idf is zero and only "world"
	// contributes. Document two scores zero and disappears.
	results := newTestRanker(t, idx, StrategyTFIDF).Rank([]string{"hello", "world"}, 10)
	if got, want := resultIDs(results), []int{d1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("result order = %v, want %v", got, want)
	}

	// tf 1, idf ln(2/1), title "Hello World" contains "world": boosted.
	want := 2 * math.Log(2.0)
	if !almostEqual(results[0].Score, want) {
		t.Errorf("score = %v, want %v", results[0].Score, want)
	}
}
