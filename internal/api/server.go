package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/websearch/internal/config"
	"github.com/nao1215/websearch/internal/metrics"
	"github.com/nao1215/websearch/internal/model"
)

const (
	// maxQueryLength caps the accepted query string length.
	maxQueryLength = 200

	// maxLimit caps the per-request result count.
	maxLimit = 100

	// shutdownTimeout bounds how long a graceful shutdown may take.
	shutdownTimeout = 10 * time.Second
)

// Searcher is the engine surface the API serves over HTTP.
type Searcher interface {
	// Search runs a ranked query against the index.
	Search(ctx context.Context, rawQuery string, limit, offset int) (*model.SearchResponse, error)

	// Stats reports index and store dimensions.
	Stats(ctx context.Context) (*model.Stats, error)
}

// Server wires HTTP handlers to the search engine.
type Server struct {
	router  chi.Router
	engine  Searcher
	cfg     config.APIConfig
	version string
	logger  *slog.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(engine Searcher, cfg config.APIConfig, version string, logger *slog.Logger) *Server {
	metrics.Init()

	s := &Server{
		engine:  engine,
		cfg:     cfg,
		version: version,
		logger:  logger.With("component", "api"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(s.recoverMiddleware)

	r.Get("/", s.root)
	r.Get("/search", s.search)
	r.Get("/stats", s.stats)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the router for use with http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until the context is
// canceled or the listener fails. Cancellation triggers a graceful
// shutdown that lets in-flight requests finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// root reports service liveness and version.
func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "websearch API is running",
		"version": s.version,
	})
}

// search answers GET /search?q=&limit=&offset=.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("query too long (max %d characters)", maxQueryLength))
		return
	}

	limit := s.cfg.MaxResults
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLimit {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	resp, err := s.engine.Search(r.Context(), query, limit, offset)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// stats answers GET /stats with index dimensions.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to collect stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"total_documents":       stats.Documents,
		"index_size":            stats.Terms,
		"max_results_per_query": s.cfg.MaxResults,
	})
}

// health answers GET /health. The service is healthy when the engine can
// report its index dimensions.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"indexed_documents": stats.Documents,
		"terms_indexed":     stats.Terms,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
