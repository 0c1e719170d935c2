package storage

import (
	"context"
	"fmt"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
)

// Store is the document store contract shared by every backend.
type Store interface {
	// SaveDocument persists a document. It returns ErrDuplicateURL when a
	// document with the same URL is already stored.
	SaveDocument(ctx context.Context, doc *model.Document) error

	// HasURL reports whether a document with the given URL is stored.
	HasURL(ctx context.Context, url string) (bool, error)

	// Document returns the document with the given ID. It returns
	// ErrNotFound when no such document exists.
	Document(ctx context.Context, id int) (*model.Document, error)

	// DocumentCount returns the number of stored documents.
	DocumentCount(ctx context.Context) (int, error)

	// SaveCrawlRun records a completed crawl run.
	SaveCrawlRun(ctx context.Context, run *model.CrawlRun) error

	// CrawlRuns returns stored crawl runs, newest first. A limit of zero
	// or less returns every run.
	CrawlRuns(ctx context.Context, limit int) ([]model.CrawlRun, error)

	// Close releases the underlying connections.
	Close() error
}

// Open builds the Store selected by the configured driver.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.DataDir)
	case config.DriverPostgres:
		return OpenPostgres(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}
