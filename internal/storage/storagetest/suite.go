// Package storagetest provides a conformance suite for storage.Store
// implementations. Every backend runs the same suite, which is what keeps
// their observable behavior interchangeable.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/storage"
)

// Factory returns a fresh, empty Store for one subtest. Implementations
// typically open a throwaway database and register cleanup on t.
type Factory func(t *testing.T) storage.Store

// Run exercises the full Store contract against factory-built stores.
// Subtests run sequentially so factories may reset a shared backing
// service between them.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("saves and reloads a document", func(t *testing.T) {
		testSaveAndReload(t, factory(t))
	})
	t.Run("document without headings round trips", func(t *testing.T) {
		testNoHeadings(t, factory(t))
	})
	t.Run("rejects a duplicate URL", func(t *testing.T) {
		testDuplicateURL(t, factory(t))
	})
	t.Run("reports missing documents", func(t *testing.T) {
		testNotFound(t, factory(t))
	})
	t.Run("knows stored URLs", func(t *testing.T) {
		testHasURL(t, factory(t))
	})
	t.Run("counts documents", func(t *testing.T) {
		testDocumentCount(t, factory(t))
	})
	t.Run("lists crawl runs newest first", func(t *testing.T) {
		testCrawlRuns(t, factory(t))
	})
	t.Run("empty store lists no runs", func(t *testing.T) {
		testNoRuns(t, factory(t))
	})
}

// testDocument builds a minimal valid document. The timestamp carries no
// sub-microsecond precision so it survives every backend.
func testDocument(id int, url string) *model.Document {
	return &model.Document{
		ID:        id,
		URL:       url,
		Title:     "Title",
		BodyText:  "Body text.",
		CrawledAt: time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC),
	}
}

func testSaveAndReload(t *testing.T, store storage.Store) {
	ctx := context.Background()

	doc := &model.Document{
		ID:              1,
		URL:             "https://example.com/go",
		Title:           "The Go Programming Language",
		BodyText:        "Go is expressive. Concurrency is built in.",
		Headings:        []string{"Install", "Learn"},
		MetaDescription: "An open source programming language",
		CrawledAt:       time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC),
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	got, err := store.Document(ctx, 1)
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	if got.ID != doc.ID || got.URL != doc.URL || got.Title != doc.Title ||
		got.BodyText != doc.BodyText || got.MetaDescription != doc.MetaDescription {
		t.Errorf("loaded document = %+v, want %+v", got, doc)
	}
	if !reflect.DeepEqual(got.Headings, doc.Headings) {
		t.Errorf("headings = %v, want %v", got.Headings, doc.Headings)
	}
	if !got.CrawledAt.Equal(doc.CrawledAt) {
		t.Errorf("crawled at = %v, want %v", got.CrawledAt, doc.CrawledAt)
	}
}

func testNoHeadings(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if err := store.SaveDocument(ctx, testDocument(1, "https://example.com/plain")); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	got, err := store.Document(ctx, 1)
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	if len(got.Headings) != 0 {
		t.Errorf("expected no headings, got %v", got.Headings)
	}
}

func testDuplicateURL(t *testing.T, store storage.Store) {
	ctx := context.Background()

	if err := store.SaveDocument(ctx, testDocument(1, "https://example.com/once")); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	err := store.SaveDocument(ctx, testDocument(2, "https://example.com/once"))
	if !errors.Is(err, storage.ErrDuplicateURL) {
		t.Errorf("expected ErrDuplicateURL, got %v", err)
	}

	count, err := store.DocumentCount(ctx)
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 1 {
		t.Errorf("expected the duplicate to leave 1 document, got %d", count)
	}
}

func testNotFound(t *testing.T, store storage.Store) {
	if _, err := store.Document(context.Background(), 42); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func testHasURL(t *testing.T, store storage.Store) {
	ctx := context.Background()

	has, err := store.HasURL(ctx, "https://example.com/maybe")
	if err != nil {
		t.Fatalf("failed to check URL: %v", err)
	}
	if has {
		t.Error("expected URL to be unknown before saving")
	}

	if err := store.SaveDocument(ctx, testDocument(1, "https://example.com/maybe")); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	has, err = store.HasURL(ctx, "https://example.com/maybe")
	if err != nil {
		t.Fatalf("failed to check URL: %v", err)
	}
	if !has {
		t.Error("expected URL to be known after saving")
	}

	has, err = store.HasURL(ctx, "https://example.com/other")
	if err != nil {
		t.Fatalf("failed to check URL: %v", err)
	}
	if has {
		t.Error("expected unrelated URL to stay unknown")
	}
}

func testDocumentCount(t *testing.T, store storage.Store) {
	ctx := context.Background()

	count, err := store.DocumentCount(ctx)
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store, got %d documents", count)
	}

	for i := 1; i <= 3; i++ {
		doc := testDocument(i, fmt.Sprintf("https://example.com/page%d", i))
		if err := store.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("failed to save document %d: %v", i, err)
		}
	}

	count, err = store.DocumentCount(ctx)
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 documents, got %d", count)
	}
}

func testCrawlRuns(t *testing.T, store storage.Store) {
	ctx := context.Background()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	runs := []model.CrawlRun{
		{
			ID:           "run-2",
			Seeds:        []string{"https://example.com"},
			StartedAt:    base.Add(time.Hour),
			FinishedAt:   base.Add(time.Hour + time.Minute),
			PagesCrawled: 20,
			PagesIndexed: 18,
		},
		{
			ID:           "run-1",
			Seeds:        []string{"https://example.com", "https://example.org"},
			StartedAt:    base,
			FinishedAt:   base.Add(time.Minute),
			PagesCrawled: 10,
			PagesIndexed: 10,
		},
		{
			ID:           "run-3",
			Seeds:        []string{"https://example.net"},
			StartedAt:    base.Add(2 * time.Hour),
			FinishedAt:   base.Add(2*time.Hour + time.Minute),
			PagesCrawled: 5,
			PagesIndexed: 4,
		},
	}
	// Insertion order is shuffled on purpose: ordering must come from
	// the start timestamps, not from insertion.
	for i := range runs {
		if err := store.SaveCrawlRun(ctx, &runs[i]); err != nil {
			t.Fatalf("failed to save crawl run %s: %v", runs[i].ID, err)
		}
	}

	got, err := store.CrawlRuns(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list crawl runs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(got))
	}
	for i, wantID := range []string{"run-3", "run-2", "run-1"} {
		if got[i].ID != wantID {
			t.Errorf("run %d = %s, want %s", i, got[i].ID, wantID)
		}
	}

	newest := got[0]
	if !reflect.DeepEqual(newest.Seeds, []string{"https://example.net"}) {
		t.Errorf("seeds = %v, want the saved seeds", newest.Seeds)
	}
	if !newest.StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("started at = %v, want %v", newest.StartedAt, base.Add(2*time.Hour))
	}
	if newest.PagesCrawled != 5 || newest.PagesIndexed != 4 {
		t.Errorf("counters = %d/%d, want 5/4", newest.PagesCrawled, newest.PagesIndexed)
	}

	limited, err := store.CrawlRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list limited crawl runs: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-3" || limited[1].ID != "run-2" {
		t.Errorf("limited runs = %v, want run-3 then run-2", limited)
	}

	all, err := store.CrawlRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list all crawl runs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected limit 0 to return every run, got %d", len(all))
	}
}

func testNoRuns(t *testing.T, store storage.Store) {
	runs, err := store.CrawlRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to list crawl runs: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
