package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEngine implements Searcher with canned responses.
type fakeEngine struct {
	searchResp    *model.SearchResponse
	searchErr     error
	panicOnSearch bool
	statsResp     *model.Stats
	statsErr      error

	lastQuery  string
	lastLimit  int
	lastOffset int
}

func (f *fakeEngine) Search(_ context.Context, rawQuery string, limit, offset int) (*model.SearchResponse, error) {
	f.lastQuery = rawQuery
	f.lastLimit = limit
	f.lastOffset = offset
	if f.panicOnSearch {
		panic("search exploded")
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResp, nil
}

func (f *fakeEngine) Stats(context.Context) (*model.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.statsResp, nil
}

// newFakeEngine creates a fake with one result and plausible stats.
func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		searchResp: &model.SearchResponse{
			Query: "golang",
			Results: []model.SearchResult{
				{
					DocID:   1,
					URL:     "https://example.com/go",
					Title:   "Go Programming",
					Score:   1.5,
					Snippet: "Go is a statically typed language.",
				},
			},
			TotalResults:  1,
			ExecutionTime: 0.002,
		},
		statsResp: &model.Stats{
			Documents:             42,
			Terms:                 1200,
			AverageDocumentLength: 87.5,
			StoredDocuments:       42,
		},
	}
}

func newTestServer(engine Searcher) *Server {
	cfg := config.APIConfig{
		Host:       "127.0.0.1",
		Port:       0,
		MaxResults: 20,
	}
	return NewServer(engine, cfg, "test", discardLogger())
}

// TestRootEndpoint tests the liveness endpoint.
func TestRootEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeEngine())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "websearch API is running") {
		t.Error("expected the service message in the body")
	}
	if !strings.Contains(rec.Body.String(), "test") {
		t.Error("expected the version in the body")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected an X-Request-ID header")
	}
}

// TestSearchEndpoint tests query handling and validation.
func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns ranked results", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp model.SearchResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if resp.Query != "golang" {
			t.Errorf("expected query %q, got %q", "golang", resp.Query)
		}
		if len(resp.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(resp.Results))
		}
		if resp.Results[0].URL != "https://example.com/go" {
			t.Errorf("unexpected result URL %q", resp.Results[0].URL)
		}
		if resp.TotalResults != 1 {
			t.Errorf("expected 1 total result, got %d", resp.TotalResults)
		}

		if engine.lastQuery != "golang" {
			t.Errorf("expected the engine to receive %q, got %q", "golang", engine.lastQuery)
		}
		if engine.lastLimit != 20 {
			t.Errorf("expected the configured default limit 20, got %d", engine.lastLimit)
		}
		if engine.lastOffset != 0 {
			t.Errorf("expected offset 0, got %d", engine.lastOffset)
		}
	})

	t.Run("honors limit and offset", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/search?q=golang&limit=5&offset=10", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if engine.lastLimit != 5 {
			t.Errorf("expected limit 5, got %d", engine.lastLimit)
		}
		if engine.lastOffset != 10 {
			t.Errorf("expected offset 10, got %d", engine.lastOffset)
		}
	})

	t.Run("trims surrounding whitespace from the query", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/search?q=%20golang%20", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if engine.lastQuery != "golang" {
			t.Errorf("expected trimmed query %q, got %q", "golang", engine.lastQuery)
		}
	})

	t.Run("rejects a missing query", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		req := httptest.NewRequest(http.MethodGet, "/search", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "missing query parameter") {
			t.Error("expected an error message about the missing query")
		}
	})

	t.Run("rejects a blank query", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		req := httptest.NewRequest(http.MethodGet, "/search?q=%20%20", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("rejects an overlong query", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		q := strings.Repeat("a", maxQueryLength+1)
		req := httptest.NewRequest(http.MethodGet, "/search?q="+q, nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "query too long") {
			t.Error("expected an error message about query length")
		}
	})

	t.Run("rejects invalid limits", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		for _, limit := range []string{"abc", "0", "-1", "101"} {
			req := httptest.NewRequest(http.MethodGet, "/search?q=golang&limit="+limit, nil)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("limit %q: expected status 400, got %d", limit, rec.Code)
			}
		}
	})

	t.Run("rejects invalid offsets", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		for _, offset := range []string{"abc", "-1"} {
			req := httptest.NewRequest(http.MethodGet, "/search?q=golang&offset="+offset, nil)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("offset %q: expected status 400, got %d", offset, rec.Code)
			}
		}
	})

	t.Run("maps engine failure to 500", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		engine.searchErr = errors.New("index corrupted")
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "search failed") {
			t.Error("expected a generic error message")
		}
		if strings.Contains(rec.Body.String(), "index corrupted") {
			t.Error("internal error detail must not leak to the client")
		}
	})
}

// TestStatsEndpoint tests the stats endpoint.
func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("reports index dimensions", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var parsed map[string]int
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if parsed["total_documents"] != 42 {
			t.Errorf("expected 42 documents, got %d", parsed["total_documents"])
		}
		if parsed["index_size"] != 1200 {
			t.Errorf("expected index size 1200, got %d", parsed["index_size"])
		}
		if parsed["max_results_per_query"] != 20 {
			t.Errorf("expected max results 20, got %d", parsed["max_results_per_query"])
		}
	})

	t.Run("maps engine failure to 500", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		engine.statsErr = errors.New("store unavailable")
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
	})
}

// TestHealthEndpoint tests the health endpoint.
func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("healthy when the engine responds", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(newFakeEngine())
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Error("expected healthy status in the body")
		}
		if !strings.Contains(rec.Body.String(), "indexed_documents") {
			t.Error("expected indexed_documents in the body")
		}
	})

	t.Run("unhealthy when the engine fails", func(t *testing.T) {
		t.Parallel()

		engine := newFakeEngine()
		engine.statsErr = errors.New("store unavailable")
		srv := newTestServer(engine)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "unhealthy") {
			t.Error("expected unhealthy status in the body")
		}
	})
}

// TestMetricsEndpoint tests the Prometheus scrape endpoint.
func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeEngine())

	// Serve one request first so the request counters carry samples.
	prime := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Handler().ServeHTTP(httptest.NewRecorder(), prime)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Error("expected http_requests_total in the scrape output")
	}
}

// TestRecoverMiddleware tests that handler panics become 500 responses.
func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	engine := newFakeEngine()
	engine.panicOnSearch = true
	srv := newTestServer(engine)
	req := httptest.NewRequest(http.MethodGet, "/search?q=golang", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Error("expected a generic panic message")
	}
}

// TestRequestIDPassthrough tests that upstream request IDs are honored.
func TestRequestIDPassthrough(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeEngine())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-42")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-id-42" {
		t.Errorf("expected the upstream request ID to pass through, got %q", got)
	}
}

// TestUnknownRoute tests chi's default not found handling.
func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeEngine())
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

// TestServerListenAndServe tests graceful startup and shutdown.
func TestServerListenAndServe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(newFakeEngine())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
