package model

import (
	"net/url"
	"time"
)

// MaxBodySize is the maximum number of raw response bytes kept per page.
// Fetches read through a limit reader of this size, so a hostile or
// misconfigured server cannot exhaust memory with a single response.
const MaxBodySize = 10 * 1024 * 1024 // 10 MB

// ExtractedPage represents a successfully fetched web page together with
// the content extracted from its markup. It is immutable once constructed:
// the crawler builds it from a fetch response and no later stage mutates it.
//
// Design decision: We keep both the raw HTML and the extracted fields
// because:
// 1. The extracted fields feed the index without re-parsing
// 2. The raw bytes allow re-extraction if the rules change
// 3. Reports can show sizes without holding parsed trees
type ExtractedPage struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code (always 200 for pages
	// that made it through the fetch unit).
	StatusCode int `json:"status_code"`

	// RawHTML is the raw response body, capped at MaxBodySize.
	RawHTML []byte `json:"-"` // Excluded from JSON to keep snapshots small

	// Title is the text of the <title> element. Empty if absent.
	Title string `json:"title,omitempty"`

	// BodyText is the visible text of the page with script, style, and
	// noscript content removed.
	BodyText string `json:"body_text,omitempty"`

	// Headings holds the h1-h6 heading texts in document order.
	Headings []string `json:"headings,omitempty"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description,omitempty"`

	// OutboundLinks holds the absolute http(s) URLs referenced by anchor
	// elements, fragment-stripped and deduplicated in first-seen order.
	OutboundLinks []string `json:"outbound_links,omitempty"`

	// FetchedAt is when the page was fetched.
	FetchedAt time.Time `json:"fetched_at"`
}

// Domain returns the host portion of the page URL, including any port.
// Returns an empty string if the URL does not parse.
func (p *ExtractedPage) Domain() string {
	u, err := url.Parse(p.URL)
	if err != nil {
		return ""
	}
	return u.Host
}
