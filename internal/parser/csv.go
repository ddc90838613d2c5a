package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// sniffDelimiter picks the separator of the first line. Spreadsheets saved
// with a Turkish locale use ";" because "," is the decimal separator.
func sniffDelimiter(content []byte) rune {
	first := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		first = content[:i]
	}
	best, bestCount := ',', bytes.Count(first, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(first, []byte{byte(d)}); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// parseCSV reads delimited rows. A recognizable header row maps the columns;
// otherwise rows are code, description, unit, unit price and a first row
// without a price is taken as an unrecognized header.
func parseCSV(content []byte) ([]domain.ReferenceItem, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffDelimiter(content)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var (
		items  []domain.ReferenceItem
		cols   = positional
		header = true
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv catalog: %w", err)
		}

		if header {
			header = false
			if detected, ok := detectColumns(row); ok {
				cols = detected
				continue
			}
			if len(row) > positional.price && !hasDigit(row[positional.price]) {
				continue
			}
		}
		if len(row) < 2 {
			continue
		}
		items = append(items, cols.item(row))
	}
	return items, nil
}
