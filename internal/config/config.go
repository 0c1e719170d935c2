package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Default configuration values. These mirror conservative crawling practice:
// bounded page counts, modest concurrency, and a politeness delay between
// requests.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "websearch"

	// DefaultMaxDepth bounds how many link hops away from a seed the
	// crawler will go. Three hops reaches most of a typical site without
	// wandering into archive or calendar pits.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps one crawl run. This prevents runaway crawling
	// on large or infinitely-generating sites.
	DefaultMaxPages = 1000

	// DefaultMaxWorkers is the number of concurrent fetch workers.
	// Ten keeps a single target site comfortable while still overlapping
	// network latency.
	DefaultMaxWorkers = 10

	// DefaultFetchTimeout is the per-request timeout. Ten seconds is
	// generous for public web servers; anything slower is retried or
	// dropped rather than holding a worker.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultUserAgent identifies websearch in HTTP requests. A
	// descriptive User-Agent lets operators identify crawler traffic in
	// their logs and write robots.txt rules for it.
	DefaultUserAgent = "websearchbot/1.0 (+https://github.com/nao1215/websearch)"

	// DefaultRetryAttempts is the number of retries after a failed fetch.
	// Total attempts per URL are DefaultRetryAttempts+1.
	DefaultRetryAttempts = 3

	// DefaultRetryBackoff is the exponential backoff base in seconds:
	// the delays before successive retries grow as backoff^0, backoff^1,
	// backoff^2, ... seconds.
	DefaultRetryBackoff = 2.0

	// DefaultPolitenessDelay is observed after every fetch sequence,
	// successful or not, so a site never sees a tight request loop from
	// one worker.
	DefaultPolitenessDelay = 500 * time.Millisecond

	// DefaultMinTokenLength drops single-character noise from the index.
	DefaultMinTokenLength = 2

	// DefaultMaxTokenLength drops pathological tokens (base64 blobs,
	// minified identifiers) that bloat the index without search value.
	DefaultMaxTokenLength = 50

	// DefaultTitleBoost is how many times the title token stream is
	// re-indexed (integer part) and the factor applied to query tokens
	// that appear in a document's title.
	DefaultTitleBoost = 2.0

	// DefaultHeadingBoost is the heading counterpart of DefaultTitleBoost.
	DefaultHeadingBoost = 1.5

	// DefaultAPIHost binds the HTTP API to all interfaces.
	DefaultAPIHost = "0.0.0.0"

	// DefaultAPIPort is the HTTP API port.
	DefaultAPIPort = 8000

	// DefaultMaxResults is the result count per query when the caller
	// does not specify a limit.
	DefaultMaxResults = 20

	// DefaultSnippetLength is the snippet budget in runes.
	DefaultSnippetLength = 200

	// DefaultCacheTTL is how long cached query responses stay valid.
	DefaultCacheTTL = 5 * time.Minute
)

// Ranking algorithm names accepted by RankingConfig.Algorithm.
const (
	// AlgorithmTFIDF selects TF-IDF scoring.
	AlgorithmTFIDF = "tfidf"
	// AlgorithmBM25 selects Okapi BM25 scoring.
	AlgorithmBM25 = "bm25"
)

// Storage driver names accepted by StorageConfig.Driver.
const (
	// DriverSQLite stores documents in a local SQLite file.
	DriverSQLite = "sqlite"
	// DriverPostgres stores documents in PostgreSQL.
	DriverPostgres = "postgres"
)

// Duration wraps time.Duration so YAML files can use readable strings like
// "10s" or "500ms". A bare integer is interpreted as seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes either a duration string or an integer second count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var secs int64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value on line %d", value.Line)
}

// Config holds all configuration for websearch. It is populated from the
// YAML config file and CLI flags and passed into each component's
// constructor; there is no package-level mutable configuration state.
//
// Design decision: The options are grouped into sub-structs per concern
// (crawler, indexer, ranking, API, storage, cache) because a flat struct
// at this size stops being readable, and the groups match how the options
// are consumed: each component receives only its own group.
type Config struct {
	// Crawler configures the crawl orchestrator and fetch unit.
	Crawler CrawlerConfig `yaml:"crawler"`

	// Indexer configures tokenization and field boosting at index time.
	Indexer IndexerConfig `yaml:"indexer"`

	// Ranking configures the query-time scoring strategy.
	Ranking RankingConfig `yaml:"ranking"`

	// API configures the HTTP query server.
	API APIConfig `yaml:"api"`

	// Storage configures the document store backend.
	Storage StorageConfig `yaml:"storage"`

	// Cache configures the optional Redis query cache.
	Cache CacheConfig `yaml:"cache"`

	// Verbose enables debug-level log output. Set from the CLI, never
	// from the config file.
	Verbose bool `yaml:"-"`

	// ReportFormat selects the crawl report format: "markdown", "json" or
	// "simple". Set from the CLI, never from the config file.
	ReportFormat string `yaml:"-"`

	// ReportFile is where the crawl report is written. Empty means
	// stdout. Set from the CLI, never from the config file.
	ReportFile string `yaml:"-"`
}

// CrawlerConfig configures the crawl orchestrator.
type CrawlerConfig struct {
	// SeedURLs are the starting points of a crawl. Each must be an
	// absolute http or https URL.
	SeedURLs []string `yaml:"seed_urls"`

	// MaxDepth is the maximum link distance from a seed. Seeds are depth
	// 0; links found on a depth-d page enqueue at d+1 only while
	// d+1 <= MaxDepth.
	MaxDepth int `yaml:"max_depth"`

	// MaxPages caps the number of pages collected in one run. The cap is
	// strict: a run never collects more, even transiently.
	MaxPages int `yaml:"max_pages"`

	// MaxWorkers is the number of concurrent crawl workers.
	MaxWorkers int `yaml:"max_workers"`

	// Timeout is the per-request fetch timeout.
	Timeout Duration `yaml:"timeout"`

	// UserAgent is sent with every page and robots.txt request.
	UserAgent string `yaml:"user_agent"`

	// RespectRobotsTxt enables the robots.txt politeness gate.
	RespectRobotsTxt bool `yaml:"respect_robots_txt"`

	// RetryAttempts is the number of retries after a failed fetch.
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryBackoff is the exponential backoff base in seconds.
	RetryBackoff float64 `yaml:"retry_backoff"`

	// FollowExternalLinks allows the crawl to leave the seed domains.
	FollowExternalLinks bool `yaml:"follow_external_links"`

	// PolitenessDelay is observed after every fetch sequence.
	PolitenessDelay Duration `yaml:"politeness_delay"`

	// InsecureSkipTLS disables TLS certificate verification. Useful for
	// crawling intranet sites with self-signed certificates; leave off
	// for the public web.
	InsecureSkipTLS bool `yaml:"insecure_skip_tls"`
}

// IndexerConfig configures tokenization and index-time boosting.
type IndexerConfig struct {
	// MinTokenLength is the minimum rune length of an indexed token.
	MinTokenLength int `yaml:"min_token_length"`

	// MaxTokenLength is the maximum rune length of an indexed token.
	MaxTokenLength int `yaml:"max_token_length"`

	// RemoveStopwords drops common English words during tokenization.
	RemoveStopwords bool `yaml:"remove_stopwords"`

	// Stemming enables light suffix stemming during tokenization.
	Stemming bool `yaml:"stemming"`

	// TitleBoost controls how many times (integer part) the title token
	// stream is indexed.
	TitleBoost float64 `yaml:"title_boost"`

	// HeadingBoost controls how many times (integer part) the heading
	// token stream is indexed.
	HeadingBoost float64 `yaml:"heading_boost"`
}

// RankingConfig configures query-time scoring.
type RankingConfig struct {
	// Algorithm selects the scoring strategy: "tfidf" or "bm25".
	Algorithm string `yaml:"algorithm"`

	// TitleBoost multiplies a query token's score when the token appears
	// in the document title.
	TitleBoost float64 `yaml:"title_boost"`

	// HeadingBoost is accepted for symmetry with the indexer settings.
	// The scoring formulas do not consult it; heading emphasis comes from
	// index-time re-indexing.
	HeadingBoost float64 `yaml:"heading_boost"`
}

// APIConfig configures the HTTP query server.
type APIConfig struct {
	// Host is the listen address.
	Host string `yaml:"host"`

	// Port is the listen port.
	Port int `yaml:"port"`

	// MaxResults is the default result count per query.
	MaxResults int `yaml:"max_results"`

	// SnippetLength is the snippet budget in runes.
	SnippetLength int `yaml:"snippet_length"`
}

// StorageConfig configures the document store.
type StorageConfig struct {
	// Driver selects the backend: "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// DataDir is where the SQLite database and index snapshot live.
	// Defaults to the XDG data directory.
	DataDir string `yaml:"data_dir"`

	// PostgresDSN is the connection string for the postgres driver.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// CacheConfig configures the optional Redis query cache.
type CacheConfig struct {
	// RedisAddr is the Redis server address in "host:port" form.
	// Empty disables the query cache entirely.
	RedisAddr string `yaml:"redis_addr"`

	// TTL is how long cached query responses stay valid.
	TTL Duration `yaml:"ttl"`
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so components must never work from a zero Config; they receive
// one built here and optionally overlaid by the config file and CLI flags.
func NewConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			MaxDepth:         DefaultMaxDepth,
			MaxPages:         DefaultMaxPages,
			MaxWorkers:       DefaultMaxWorkers,
			Timeout:          Duration(DefaultFetchTimeout),
			UserAgent:        DefaultUserAgent,
			RespectRobotsTxt: true,
			RetryAttempts:    DefaultRetryAttempts,
			RetryBackoff:     DefaultRetryBackoff,
			PolitenessDelay:  Duration(DefaultPolitenessDelay),
		},
		Indexer: IndexerConfig{
			MinTokenLength:  DefaultMinTokenLength,
			MaxTokenLength:  DefaultMaxTokenLength,
			RemoveStopwords: true,
			TitleBoost:      DefaultTitleBoost,
			HeadingBoost:    DefaultHeadingBoost,
		},
		Ranking: RankingConfig{
			Algorithm:    AlgorithmTFIDF,
			TitleBoost:   DefaultTitleBoost,
			HeadingBoost: DefaultHeadingBoost,
		},
		API: APIConfig{
			Host:          DefaultAPIHost,
			Port:          DefaultAPIPort,
			MaxResults:    DefaultMaxResults,
			SnippetLength: DefaultSnippetLength,
		},
		Storage: StorageConfig{
			Driver:  DriverSQLite,
			DataDir: XDGDataDir(),
		},
		Cache: CacheConfig{
			TTL: Duration(DefaultCacheTTL),
		},
	}
}

// XDGDataDir returns the XDG data directory for websearch.
// On Linux: ~/.local/share/websearch
// On macOS: ~/Library/Application Support/websearch
// On Windows: %LOCALAPPDATA%\websearch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// SnapshotPath returns the path of the index snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Storage.DataDir, "inverted_index.json")
}

// Validate checks the whole configuration and reports every violation at
// once.
//
// Design decision: Unlike flag-driven tools that fail on the first error,
// this configuration is usually edited as a file; collecting all problems
// into one multierror saves the user an edit-rerun loop per mistake.
// Seed URL presence is deliberately not checked here: only the crawl path
// needs seeds, and search/serve must work without them.
func (c *Config) Validate() error {
	var errs *multierror.Error

	for _, seed := range c.Crawler.SeedURLs {
		if err := validateSeedURL(seed); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if c.Crawler.MaxDepth < 0 {
		errs = multierror.Append(errs, ErrInvalidMaxDepth)
	}
	if c.Crawler.MaxPages <= 0 {
		errs = multierror.Append(errs, ErrInvalidMaxPages)
	}
	if c.Crawler.MaxWorkers <= 0 {
		errs = multierror.Append(errs, ErrInvalidMaxWorkers)
	}
	if c.Crawler.Timeout.Std() <= 0 {
		errs = multierror.Append(errs, ErrInvalidTimeout)
	}
	if c.Crawler.RetryAttempts < 0 {
		errs = multierror.Append(errs, ErrInvalidRetryAttempts)
	}
	if c.Crawler.RetryBackoff <= 0 {
		errs = multierror.Append(errs, ErrInvalidRetryBackoff)
	}
	if c.Crawler.PolitenessDelay.Std() < 0 {
		errs = multierror.Append(errs, ErrInvalidPolitenessDelay)
	}

	if c.Indexer.MinTokenLength < 1 {
		errs = multierror.Append(errs, ErrInvalidTokenLength)
	}
	if c.Indexer.MaxTokenLength < c.Indexer.MinTokenLength {
		errs = multierror.Append(errs, ErrInvalidTokenLength)
	}
	if c.Indexer.TitleBoost < 0 || c.Indexer.HeadingBoost < 0 {
		errs = multierror.Append(errs, ErrInvalidBoost)
	}

	switch c.Ranking.Algorithm {
	case AlgorithmTFIDF, AlgorithmBM25:
	default:
		errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Ranking.Algorithm))
	}
	if c.Ranking.TitleBoost < 0 {
		errs = multierror.Append(errs, ErrInvalidBoost)
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = multierror.Append(errs, ErrInvalidPort)
	}
	if c.API.MaxResults <= 0 {
		errs = multierror.Append(errs, ErrInvalidMaxResults)
	}
	if c.API.SnippetLength <= 0 {
		errs = multierror.Append(errs, ErrInvalidSnippetLength)
	}

	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = multierror.Append(errs, ErrMissingPostgresDSN)
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver))
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTL.Std() <= 0 {
		errs = multierror.Append(errs, ErrInvalidCacheTTL)
	}

	return errs.ErrorOrNil()
}

// validateSeedURL checks that a seed is an absolute http(s) URL.
func validateSeedURL(seed string) error {
	u, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSeedURL, seed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSeedURL, seed)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q: missing host", ErrInvalidSeedURL, seed)
	}
	return nil
}
