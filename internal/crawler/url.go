package crawler

import (
	"net/url"
	"strings"
)

// skipExtensions are file types the crawler never follows. They cannot be
// parsed as HTML, and fetching them would waste bandwidth on both sides.
var skipExtensions = []string{
	".pdf", ".zip", ".exe", ".jpg", ".png", ".gif", ".mp4",
}

// NormalizeURL canonicalizes a URL for visited-set comparison. Trailing
// slashes are stripped unless the URL is just a scheme and host (where the
// slash IS the path), and the fragment is dropped because it addresses a
// position inside the same document.
//
// The slash check counts every slash in the raw string, including the two
// in "scheme://": "http://example.com/" has three and keeps its slash,
// "http://example.com/a/" has four and loses it.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if strings.HasSuffix(u, "/") && strings.Count(u, "/") > 3 {
		u = strings.TrimRight(u, "/")
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return u
}

// IsValidURL reports whether rawURL is an absolute URL with a host.
func IsValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Domain extracts the host (including any port) from a URL, or empty if
// the URL cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// ShouldFollowLink decides whether a link discovered on currentURL is
// worth enqueueing: it must be a valid absolute URL, stay on the current
// domain unless external links are enabled, and not point at a known
// binary file type.
func ShouldFollowLink(currentURL, linkURL string, followExternal bool) bool {
	if !IsValidURL(linkURL) {
		return false
	}

	if !followExternal && !strings.EqualFold(Domain(currentURL), Domain(linkURL)) {
		return false
	}

	lower := strings.ToLower(linkURL)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
