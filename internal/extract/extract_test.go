package extract

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Go Search Engines</title>
  <meta name="description" content="A survey of search engines written in Go.">
  <style>body { color: red; }</style>
  <script>var tracking = "should not appear";</script>
</head>
<body>
  <h1>Search Engines</h1>
  <p>Building a <b>search</b> engine in Go.</p>
  <h2>Crawling</h2>
  <p>Crawlers fetch pages politely.</p>
  <a href="/crawl">Crawling guide</a>
  <a href="https://example.com/rank#scores">Ranking</a>
  <a href="mailto:team@example.com">Mail us</a>
  <a href="javascript:void(0)">Click</a>
  <a href="/crawl">Crawling guide again</a>
  <noscript>Enable JavaScript please</noscript>
</body>
</html>`

// TestParserParse tests extraction of all fields from a representative page.
func TestParserParse(t *testing.T) {
	t.Parallel()

	parser, err := NewParser("https://example.com/index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := parser.Parse(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("title", func(t *testing.T) {
		t.Parallel()
		if result.Title != "Go Search Engines" {
			t.Errorf("expected title 'Go Search Engines', got %q", result.Title)
		}
	})

	t.Run("meta description", func(t *testing.T) {
		t.Parallel()
		want := "A survey of search engines written in Go."
		if result.MetaDescription != want {
			t.Errorf("expected description %q, got %q", want, result.MetaDescription)
		}
	})

	t.Run("headings in document order", func(t *testing.T) {
		t.Parallel()
		want := []string{"Search Engines", "Crawling"}
		if !reflect.DeepEqual(result.Headings, want) {
			t.Errorf("expected headings %v, got %v", want, result.Headings)
		}
	})

	t.Run("body text includes visible text", func(t *testing.T) {
		t.Parallel()
		for _, want := range []string{
			"Building a search engine in Go.",
			"Crawlers fetch pages politely.",
		} {
			if !strings.Contains(result.BodyText, want) {
				t.Errorf("expected body text to contain %q, got %q", want, result.BodyText)
			}
		}
	})

	t.Run("body text includes title and headings", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(result.BodyText, "Go Search Engines") {
			t.Errorf("expected body text to contain the title, got %q", result.BodyText)
		}
	})

	t.Run("body text excludes script style and noscript", func(t *testing.T) {
		t.Parallel()
		for _, banned := range []string{"should not appear", "color: red", "Enable JavaScript"} {
			if strings.Contains(result.BodyText, banned) {
				t.Errorf("expected body text to exclude %q, got %q", banned, result.BodyText)
			}
		}
	})

	t.Run("links resolved, filtered, and deduplicated", func(t *testing.T) {
		t.Parallel()
		want := []string{
			"https://example.com/crawl",
			"https://example.com/rank",
		}
		if !reflect.DeepEqual(result.Links, want) {
			t.Errorf("expected links %v, got %v", want, result.Links)
		}
	})
}

// TestParserParseEdgeCases tests parsing of sparse or malformed documents.
func TestParserParseEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantBody  string
		wantLinks []string
	}{
		{
			name:      "empty document",
			html:      "",
			wantTitle: "",
			wantBody:  "",
			wantLinks: []string{},
		},
		{
			name:      "plain text without markup",
			html:      "just words",
			wantTitle: "",
			wantBody:  "just words",
			wantLinks: []string{},
		},
		{
			name:      "unclosed tags",
			html:      "<html><body><p>one<p>two",
			wantTitle: "",
			wantBody:  "one two",
			wantLinks: []string{},
		},
		{
			name:      "first non-empty title wins",
			html:      "<title></title><title>Second</title>",
			wantTitle: "Second",
			wantBody:  "Second",
			wantLinks: []string{},
		},
		{
			name:      "entities decoded",
			html:      "<title>Fish &amp; Chips</title>",
			wantTitle: "Fish & Chips",
			wantBody:  "Fish & Chips",
			wantLinks: []string{},
		},
		{
			name:      "bare fragment href ignored",
			html:      `<a href="#">top</a>`,
			wantTitle: "",
			wantBody:  "top",
			wantLinks: []string{},
		},
		{
			name:      "fragment-only href resolves to the page itself",
			html:      `<a href="#section">jump</a><a href="/other">other</a>`,
			wantTitle: "",
			wantBody:  "jump other",
			wantLinks: []string{"https://example.com/page", "https://example.com/other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parser, err := NewParser("https://example.com/page")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			result, err := parser.Parse(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, result.Title)
			}
			if result.BodyText != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, result.BodyText)
			}
			if !reflect.DeepEqual(result.Links, tt.wantLinks) {
				t.Errorf("expected links %v, got %v", tt.wantLinks, result.Links)
			}
		})
	}
}

// TestParsePage tests assembly of the full page record.
func TestParsePage(t *testing.T) {
	t.Parallel()

	fetchedAt := time.Now()
	page, err := ParsePage("https://example.com/", 200, []byte(samplePage), fetchedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.URL != "https://example.com/" {
		t.Errorf("expected URL to be kept, got %q", page.URL)
	}
	if page.StatusCode != 200 {
		t.Errorf("expected status 200, got %d", page.StatusCode)
	}
	if page.Title != "Go Search Engines" {
		t.Errorf("expected title, got %q", page.Title)
	}
	if len(page.OutboundLinks) != 2 {
		t.Errorf("expected 2 outbound links, got %v", page.OutboundLinks)
	}
	if !page.FetchedAt.Equal(fetchedAt) {
		t.Errorf("expected FetchedAt to be kept, got %v", page.FetchedAt)
	}
	if len(page.RawHTML) == 0 {
		t.Error("expected raw HTML to be kept")
	}
}

// TestNewParserInvalidBase tests that an unparseable base URL is rejected.
func TestNewParserInvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := NewParser("http://exa mple.com/%zz"); err == nil {
		t.Error("expected error for unparseable base URL")
	}
}
