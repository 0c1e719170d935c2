package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pqUniqueViolation = "23505"

// PostgresStore persists documents and crawl runs in PostgreSQL. It
// exposes the same observable behavior as SQLiteStore; the storagetest
// suite holds both to that.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL with the given DSN and prepares the
// schema.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, config.ErrMissingPostgresDSN
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *PostgresStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id BIGINT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		body_text TEXT NOT NULL DEFAULT '',
		headings TEXT NOT NULL DEFAULT 'null',
		meta_description TEXT NOT NULL DEFAULT '',
		crawled_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		seeds TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		pages_indexed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_crawl_runs_started ON crawl_runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveDocument inserts a document row, translating unique violations on
// the URL into ErrDuplicateURL.
func (s *PostgresStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	headingsJSON, err := json.Marshal(doc.Headings)
	if err != nil {
		return fmt.Errorf("failed to serialize headings: %w", err)
	}

	query := `
	INSERT INTO documents (id, url, title, body_text, headings, meta_description, crawled_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.db.ExecContext(ctx, query,
		doc.ID,
		doc.URL,
		doc.Title,
		doc.BodyText,
		string(headingsJSON),
		doc.MetaDescription,
		doc.CrawledAt.UTC(),
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateURL, doc.URL)
	}
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// HasURL reports whether a document with the given URL is stored.
func (s *PostgresStore) HasURL(ctx context.Context, url string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE url = $1", url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check URL: %w", err)
	}
	return count > 0, nil
}

// Document retrieves a document by ID.
func (s *PostgresStore) Document(ctx context.Context, id int) (*model.Document, error) {
	query := `
	SELECT id, url, title, body_text, headings, meta_description, crawled_at
	FROM documents
	WHERE id = $1
	`

	var doc model.Document
	var headingsJSON string
	var crawledAt time.Time

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

	doc.CrawledAt = crawledAt.UTC()
	if headingsJSON != "" {
		if err := json.Unmarshal([]byte(headingsJSON), &doc.Headings); err != nil {
			return nil, fmt.Errorf("failed to parse headings: %w", err)
		}
	}

	return &doc, nil
}

// DocumentCount returns the number of stored documents.
func (s *PostgresStore) DocumentCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// SaveCrawlRun records a completed crawl run.
func (s *PostgresStore) SaveCrawlRun(ctx context.Context, run *model.CrawlRun) error {
	seedsJSON, err := json.Marshal(run.Seeds)
	if err != nil {
		return fmt.Errorf("failed to serialize seeds: %w", err)
	}

	query := `
	INSERT INTO crawl_runs (id, seeds, started_at, finished_at, pages_crawled, pages_indexed)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		string(seedsJSON),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.PagesCrawled,
		run.PagesIndexed,
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}

	return nil
}

// CrawlRuns returns stored crawl runs, newest first.
func (s *PostgresStore) CrawlRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	query := `
	SELECT id, seeds, started_at, finished_at, pages_crawled, pages_indexed
	FROM crawl_runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)

	if limit > 0 {
		query += " LIMIT $1"
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
		var seedsJSON string
		var startedAt, finishedAt time.Time

		if err := rows.Scan(&run.ID, &seedsJSON, &startedAt, &finishedAt,
			&run.PagesCrawled, &run.PagesIndexed); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}

		if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds: %w", err)
		}
		run.StartedAt = startedAt.UTC()
		run.FinishedAt = finishedAt.UTC()

		runs = append(runs, run)
	}

	return runs, rows.Err()
}
