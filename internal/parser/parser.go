// Package parser turns import documents into catalog items and query lines.
// It's designed to be forgiving about layout - real price lists come from
// spreadsheets, exports and web pages - but strict about required fields.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// ErrUnsupportedFormat is returned for documents the parser cannot read.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// utf8BOM prefixes files exported by spreadsheet tools.
var utf8BOM = []byte("\xef\xbb\xbf")

// Format identifies a catalog document layout.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Parser defines how documents are read.
// Having this as an interface lets the indexer be tested without real files.
type Parser interface {
	// ParseCatalog reads reference items. Items without a code or a
	// description are skipped.
	ParseCatalog(format Format, content []byte) ([]domain.ReferenceItem, error)

	// ParseQueries splits a plain-text document into query lines.
	ParseQueries(content string) []domain.QueryLine
}

// DocumentParser is the default implementation used in production.
type DocumentParser struct {
	// MinQueryLen is the shortest query line kept, in runes (default: 6).
	// Shorter lines are page numbers, headings and stray cells.
	MinQueryLen int
}

// NewDocumentParser creates a parser with sensible defaults.
func NewDocumentParser() *DocumentParser {
	return &DocumentParser{MinQueryLen: 6}
}

// FormatForPath picks the catalog format from a file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// SourceIDForPath generates a unique, stable identifier for a file path.
// Uses SHA256 of the absolute path, truncated to 16 chars.
func SourceIDForPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return sourceID(abs)
}

// SourceIDForURL generates a stable identifier for a fetched page.
func SourceIDForURL(rawURL string) string {
	return sourceID(strings.TrimSpace(rawURL))
}

func sourceID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

// ParseCatalog reads reference items in the given format.
func (p *DocumentParser) ParseCatalog(format Format, content []byte) ([]domain.ReferenceItem, error) {
	var (
		items []domain.ReferenceItem
		err   error
	)
	switch format {
	case FormatJSON:
		items, err = parseJSON(content)
	case FormatCSV:
		items, err = parseCSV(content)
	case FormatMarkdown:
		items = parseMarkdownTables(string(content))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	return cleanItems(items), nil
}

// cleanItems trims every field and drops items lacking a code or description.
func cleanItems(items []domain.ReferenceItem) []domain.ReferenceItem {
	out := items[:0]
	for _, it := range items {
		it.Code = strings.TrimSpace(it.Code)
		it.Description = strings.TrimSpace(it.Description)
		it.Unit = strings.TrimSpace(it.Unit)
		if it.Code == "" || it.Description == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ParseQueries returns one query per non-trivial line, in document order.
func (p *DocumentParser) ParseQueries(content string) []domain.QueryLine {
	minLen := p.MinQueryLen
	if minLen == 0 {
		minLen = 6
	}

	var lines []domain.QueryLine
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < minLen {
			continue
		}
		lines = append(lines, domain.QueryLine{Text: line})
	}
	return lines
}
