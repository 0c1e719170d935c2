// Package metrics exposes Prometheus collectors for the search service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Crawl outcome labels accepted by AddCrawlOutcome.
const (
	// OutcomeCrawled marks a successfully fetched page.
	OutcomeCrawled = "crawled"
	// OutcomeRobotsDenied marks a URL skipped because robots.txt
	// disallowed it.
	OutcomeRobotsDenied = "robots_denied"
	// OutcomeFetchFailed marks a URL dropped after exhausting retries.
	OutcomeFetchFailed = "fetch_failed"
)

// Cache result labels accepted by ObserveSearch.
const (
	// CacheHit marks a search answered from the query cache.
	CacheHit = "hit"
	// CacheMiss marks a search that ran the ranker and filled the cache.
	CacheMiss = "miss"
	// CacheBypass marks a search run without a configured cache.
	CacheBypass = "bypass"
)

var (
	pagesCrawledTotal          *prometheus.CounterVec
	documentsIndexedTotal      prometheus.Counter
	searchesTotal              *prometheus.CounterVec
	searchDurationSeconds      prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	indexDocuments             prometheus.Gauge
	indexTerms                 prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesCrawledTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_pages_crawled_total",
				Help: "Total number of URLs processed by the crawler, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		documentsIndexedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "websearch_documents_indexed_total",
				Help: "Total number of documents added to the inverted index.",
			},
		)

		searchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "websearch_searches_total",
				Help: "Total number of searches served, labeled by cache result.",
			},
			[]string{"cache"},
		)

		searchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "websearch_search_duration_seconds",
				Help:    "Histogram of search latencies.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		indexDocuments = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websearch_index_documents",
				Help: "Number of documents in the inverted index.",
			},
		)

		indexTerms = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websearch_index_terms",
				Help: "Number of distinct terms in the inverted index.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AddCrawlOutcome adds a crawl run's count for the given outcome. The
// crawler reports totals per run, not per page, so this takes a count.
func AddCrawlOutcome(outcome string, count int) {
	if count <= 0 {
		return
	}
	pagesCrawledTotal.WithLabelValues(outcome).Add(float64(count))
}

// ObserveDocumentIndexed increments the indexed document counter.
func ObserveDocumentIndexed() {
	documentsIndexedTotal.Inc()
}

// ObserveSearch records one served search and its latency.
func ObserveSearch(cacheResult string, duration time.Duration) {
	searchesTotal.WithLabelValues(cacheResult).Inc()
	searchDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetIndexSize records the current index dimensions.
func SetIndexSize(documents, terms int) {
	indexDocuments.Set(float64(documents))
	indexTerms.Set(float64(terms))
}
