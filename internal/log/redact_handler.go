package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be masked.
// These keys commonly contain sensitive information that should not be logged.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,

	// Authentication
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"refresh_token": true,

	// Connection strings
	"dsn":            true,
	"postgres_dsn":   true,
	"redis_password": true,

	// Credentials
	"credential":  true,
	"credentials": true,
	"auth":        true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
// Values matching these patterns will be masked regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// RedactHandler wraps an slog.Handler to redact credentials from log output.
// It intercepts log records and rewrites attribute values that match
// sensitive key names, match secret value patterns, or carry a password in
// URL userinfo, before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Every component that accepts *slog.Logger gets redaction for free
type RedactHandler struct {
	// handler is the underlying slog handler that receives redacted records.
	handler slog.Handler
}

// NewRedactHandler creates a new RedactHandler wrapping the given handler.
// All log attributes will be redacted before being passed to the underlying handler.
// If handler is nil, the returned RedactHandler will use slog.Default().Handler().
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and passes it to the underlying handler.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	// Create a new record with redacted attributes
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(a))
		return true
	})

	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are redacted before being added.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redactedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redactedAttrs[i] = h.redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redactedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr redacts a single attribute, recursively handling groups.
func (h *RedactHandler) redactAttr(a slog.Attr) slog.Attr {
	// Handle groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redactedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			redactedAttrs[i] = h.redactAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactedAttrs...)}
	}

	// Check if the key indicates sensitive data
	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Check if the value matches secret patterns
		if isSensitiveValue(strVal) {
			return slog.String(a.Key, MaskValue)
		}

		// Rewrite URLs and DSNs that carry a password in their userinfo
		if redacted, changed := redactURLPassword(strVal); changed {
			return slog.String(a.Key, redacted)
		}
	}

	return a
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// Note: We intentionally exclude the bare "key" keyword as it causes false
// positives ("cache_key", "sort_key", "primary_key"). We also exclude "seed":
// in this codebase a seed is a crawl starting URL, not a wallet secret.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth",
		"credential", "private",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches secret patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// redactURLPassword rewrites a URL-shaped value whose userinfo carries a
// password, replacing the password with "xxxxx" as url.URL.Redacted does.
// The second return value reports whether a rewrite happened. Values that
// are not URLs, or URLs without a password, are returned unchanged.
func redactURLPassword(value string) (string, bool) {
	if !strings.Contains(value, "://") || !strings.Contains(value, "@") {
		return value, false
	}

	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value, false
	}
	if _, hasPassword := u.User.Password(); !hasPassword {
		return value, false
	}

	return u.Redacted(), true
}

// NewLogger creates a new slog.Logger with credential redaction.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	redactHandler := NewRedactHandler(textHandler)

	return slog.New(redactHandler)
}

// NewJSONLogger creates a new slog.Logger with credential redaction that
// outputs JSON format. Useful for structured log aggregation.
//
// Parameters:
//   - w: The io.Writer to write log output to
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger configured for JSON output with redaction.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	redactHandler := NewRedactHandler(jsonHandler)

	return slog.New(redactHandler)
}
