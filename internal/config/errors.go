package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Errors that carry a dynamic value (the bad seed
// URL, the unknown algorithm name) are wrapped with fmt.Errorf("%w: ...")
// at the point of use so errors.Is still matches.
var (
	// ErrNoSeeds is returned when a crawl is requested without seed URLs.
	ErrNoSeeds = errors.New("no seed URLs configured: set crawler.seed_urls or pass --seeds")

	// ErrInvalidSeedURL is returned for a seed that is not an absolute
	// http(s) URL.
	ErrInvalidSeedURL = errors.New("invalid seed URL")

	// ErrInvalidMaxDepth is returned when max_depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when max_pages is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxWorkers is returned when max_workers is not positive.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetryAttempts is returned when retry_attempts is negative.
	// Zero is valid and means a single attempt per URL.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be non-negative")

	// ErrInvalidRetryBackoff is returned when retry_backoff is not positive.
	ErrInvalidRetryBackoff = errors.New("invalid retry backoff: must be positive")

	// ErrInvalidPolitenessDelay is returned when politeness_delay is
	// negative. Zero disables the delay.
	ErrInvalidPolitenessDelay = errors.New("invalid politeness delay: must be non-negative")

	// ErrInvalidTokenLength is returned when the token length bounds are
	// inconsistent: min must be at least 1 and max must not be below min.
	ErrInvalidTokenLength = errors.New("invalid token length bounds")

	// ErrInvalidBoost is returned when a boost factor is negative.
	ErrInvalidBoost = errors.New("invalid boost factor: must be non-negative")

	// ErrUnknownAlgorithm is returned for a ranking algorithm outside the
	// supported set (tfidf, bm25).
	ErrUnknownAlgorithm = errors.New("unknown ranking algorithm")

	// ErrInvalidPort is returned when the API port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid API port")

	// ErrInvalidMaxResults is returned when api.max_results is not positive.
	ErrInvalidMaxResults = errors.New("invalid max results: must be positive")

	// ErrInvalidSnippetLength is returned when api.snippet_length is not
	// positive.
	ErrInvalidSnippetLength = errors.New("invalid snippet length: must be positive")

	// ErrUnknownDriver is returned for a storage driver outside the
	// supported set (sqlite, postgres).
	ErrUnknownDriver = errors.New("unknown storage driver")

	// ErrMissingPostgresDSN is returned when the postgres driver is
	// selected without a connection string.
	ErrMissingPostgresDSN = errors.New("postgres driver requires storage.postgres_dsn")

	// ErrInvalidCacheTTL is returned when the cache is enabled with a
	// non-positive TTL.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be positive when the cache is enabled")
)
