package extract

import (
	"bytes"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nao1215/websearch/internal/model"
)

// Parser extracts information from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// Result contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct from a single
// parsing pass rather than one method per field because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type Result struct {
	// Title is the text of the first non-empty <title> tag.
	Title string

	// BodyText is the visible text of the whole document with whitespace
	// collapsed. Script, style, and noscript content is excluded; title
	// and heading text is included.
	BodyText string

	// Headings are the h1 through h6 texts in document order.
	Headings []string

	// MetaDescription is the content of the first meta description tag.
	MetaDescription string

	// Links are the absolute http(s) URLs of all anchors, fragments
	// stripped, deduplicated in first-seen order.
	Links []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts all indexable information.
func (p *Parser) Parse(content io.Reader) (*Result, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Headings: make([]string, 0),
		Links:    make([]string, 0),
	}

	var bodyText strings.Builder
	seenLinks := make(map[string]bool)

	// Walk the DOM tree
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				// Nothing here is visible text or a followable link.
				return

			case "title":
				if result.Title == "" {
					result.Title = collapseSpace(textContent(n))
				}

			case "h1", "h2", "h3", "h4", "h5", "h6":
				if heading := collapseSpace(textContent(n)); heading != "" {
					result.Headings = append(result.Headings, heading)
				}

			case "a":
				if href := getAttr(n, "href"); href != "" {
					if link := p.resolveLink(href); link != "" && !seenLinks[link] {
						seenLinks[link] = true
						result.Links = append(result.Links, link)
					}
				}

			case "meta":
				if result.MetaDescription == "" && strings.EqualFold(getAttr(n, "name"), "description") {
					result.MetaDescription = strings.TrimSpace(getAttr(n, "content"))
				}
			}
		}

		if n.Type == html.TextNode {
			bodyText.WriteString(n.Data)
			bodyText.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	result.BodyText = collapseSpace(bodyText.String())
	return result, nil
}

// resolveLink resolves an anchor href against the base URL and filters out
// everything a crawler cannot fetch. It returns the absolute URL with the
// fragment stripped, or empty if the link should be ignored.
func (p *Parser) resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	// Fragments address positions inside one document; the crawler treats
	// all of them as the same page.
	resolved.Fragment = ""
	return resolved.String()
}

// ParsePage parses a fetched body and assembles the full page record.
func ParsePage(pageURL string, statusCode int, body []byte, fetchedAt time.Time) (*model.ExtractedPage, error) {
	parser, err := NewParser(pageURL)
	if err != nil {
		return nil, err
	}

	result, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	return &model.ExtractedPage{
		URL:             pageURL,
		StatusCode:      statusCode,
		RawHTML:         body,
		Title:           result.Title,
		BodyText:        result.BodyText,
		Headings:        result.Headings,
		MetaDescription: result.MetaDescription,
		OutboundLinks:   result.Links,
		FetchedAt:       fetchedAt,
	}, nil
}

// textContent returns the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace trims a string and folds every whitespace run into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
