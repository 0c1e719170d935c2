package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/websearch/internal/model"
)

// sqliteFile is the database file name under the data directory.
const sqliteFile = "websearch.db"

// SQLiteStore persists documents and crawl runs in a local SQLite file.
//
// Design decision: One database file holds both tables rather than one
// file per crawl run. The document set is cumulative across runs anyway,
// and a single file keeps backup and inspection trivial.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// OpenSQLite opens or creates the SQLite store under dataDir. The
// directory and database file are created when missing.
func OpenSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, sqliteFile)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; a single connection avoids lock
	// contention errors under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	-- Documents store the indexed pages. IDs come from the inverted
	-- index, so the column is a plain primary key without autoincrement.
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		body_text TEXT,
		headings TEXT,
		meta_description TEXT,
		crawled_at DATETIME NOT NULL
	);

	-- Crawl runs record one crawl-and-index invocation each.
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		seeds TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		pages_indexed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_crawl_runs_started ON crawl_runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveDocument inserts a document row. The URL carries a unique
// constraint, so saving an already stored URL fails with ErrDuplicateURL
// and leaves the existing row untouched.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	headingsJSON, err := json.Marshal(doc.Headings)
	if err != nil {
		return fmt.Errorf("failed to serialize headings: %w", err)
	}

	query := `
	INSERT INTO documents (id, url, title, body_text, headings, meta_description, crawled_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.URL,
		doc.Title,
		doc.BodyText,
		string(headingsJSON),
		doc.MetaDescription,
		doc.CrawledAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, doc.URL)
	}
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// HasURL reports whether a document with the given URL is stored.
func (s *SQLiteStore) HasURL(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE url = ?", url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check URL: %w", err)
	}
	return count > 0, nil
}

// Document retrieves a document by ID.
func (s *SQLiteStore) Document(ctx context.Context, id int) (*model.Document, error) {
	query := `
	SELECT id, url, title, body_text, headings, meta_description, crawled_at
	FROM documents
	WHERE id = ?
	`

	var doc model.Document
	var headingsJSON, crawledAt string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.URL,
		&doc.Title,
		&doc.BodyText,
		&headingsJSON,
		&doc.MetaDescription,
		&crawledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.CrawledAt = parseTimestamp(crawledAt)
	if headingsJSON != "" {
		if err := json.Unmarshal([]byte(headingsJSON), &doc.Headings); err != nil {
			return nil, fmt.Errorf("failed to parse headings: %w", err)
		}
	}

	return &doc, nil
}

// DocumentCount returns the number of stored documents.
func (s *SQLiteStore) DocumentCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// SaveCrawlRun records a completed crawl run.
func (s *SQLiteStore) SaveCrawlRun(ctx context.Context, run *model.CrawlRun) error {
	seedsJSON, err := json.Marshal(run.Seeds)
	if err != nil {
		return fmt.Errorf("failed to serialize seeds: %w", err)
	}

	query := `
	INSERT INTO crawl_runs (id, seeds, started_at, finished_at, pages_crawled, pages_indexed)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		string(seedsJSON),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.PagesCrawled,
		run.PagesIndexed,
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}

	return nil
}

// CrawlRuns returns stored crawl runs, newest first.
func (s *SQLiteStore) CrawlRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	query := `
	SELECT id, seeds, started_at, finished_at, pages_crawled, pages_indexed
	FROM crawl_runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl runs: %w", err)
	}
	defer rows.Close()

	var runs []model.CrawlRun
	for rows.Next() {
		var run model.CrawlRun
		var seedsJSON, startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &seedsJSON, &startedAt, &finishedAt,
			&run.PagesCrawled, &run.PagesIndexed); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		run.FinishedAt = parseTimestamp(finishedAt)

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces constraint violations only through the
// error text, so the check is textual.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite returns timestamps as stored, which may vary across
// writers. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
