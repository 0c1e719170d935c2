package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/websearch/internal/model"
	"github.com/nao1215/websearch/internal/storage"
	"github.com/nao1215/websearch/internal/storage/storagetest"
)

// newSQLiteStore opens a throwaway SQLite store for one test.
func newSQLiteStore(t *testing.T) storage.Store {
	t.Helper()

	store, err := storage.OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocument(id int, url string) *model.Document {
	return &model.Document{
		ID:        id,
		URL:       url,
		Title:     "Title",
		BodyText:  "Body text.",
		CrawledAt: time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestSQLiteStoreConformance(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, newSQLiteStore)
}

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	t.Run("creates the database file in a new directory", func(t *testing.T) {
		t.Parallel()

		dataDir := filepath.Join(t.TempDir(), "nested", "data")
		store, err := storage.OpenSQLite(dataDir)
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		defer store.Close()

		if _, err := os.Stat(filepath.Join(dataDir, "websearch.db")); err != nil {
			t.Errorf("expected database file to exist: %v", err)
		}
	})

	t.Run("reopening keeps stored documents", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		dataDir := t.TempDir()

		first, err := storage.OpenSQLite(dataDir)
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		doc := testDocument(1, "https://example.com/persist")
		if err := first.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("failed to save document: %v", err)
		}
		if err := first.Close(); err != nil {
			t.Fatalf("failed to close store: %v", err)
		}

		second, err := storage.OpenSQLite(dataDir)
		if err != nil {
			t.Fatalf("failed to reopen sqlite store: %v", err)
		}
		defer second.Close()

		got, err := second.Document(ctx, 1)
		if err != nil {
			t.Fatalf("failed to load document after reopen: %v", err)
		}
		if got.URL != doc.URL {
			t.Errorf("loaded URL = %q, want %q", got.URL, doc.URL)
		}
	})
}
