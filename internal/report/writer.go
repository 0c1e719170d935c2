package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/websearch/internal/model"
)

// Report output format names accepted by NewWriter.
const (
	// FormatMarkdown renders the report as Markdown.
	FormatMarkdown = "markdown"
	// FormatJSON renders the report as pretty-printed JSON.
	FormatJSON = "json"
	// FormatSimple renders the report as plain terminal text.
	FormatSimple = "simple"
)

// ErrUnknownFormat is returned when NewWriter receives a format name it
// does not know.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer defines the interface for report output.
// Implementations write crawl reports in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)
}

// NewWriter creates a Writer for the named format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatSimple:
		return NewSimpleWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
