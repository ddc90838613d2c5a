package parser

import (
	"strings"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// isSeparatorCell checks if a table cell is just separator dashes (e.g., "---" or ":---:")
func isSeparatorCell(cell string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return false
	}
	for _, r := range cell {
		if r != '-' && r != ':' {
			return false
		}
	}
	return true
}

// splitTableRow extracts the cells of a markdown table row, keeping empty
// cells so columns stay aligned. Returns nil for lines that are not rows.
func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") {
		return nil
	}
	line = strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if c != "" && !isSeparatorCell(c) {
			return false
		}
	}
	return true
}

// parseMarkdownTables reads every table in a markdown document, such as a
// converted price-list web page. Each table's header row maps its columns;
// tables with an unrecognized header are read positionally.
func parseMarkdownTables(content string) []domain.ReferenceItem {
	var (
		items   []domain.ReferenceItem
		cols    = positional
		inTable bool
		pending []string // first row of a table, until its separator is seen
	)

	for _, line := range strings.Split(content, "\n") {
		cells := splitTableRow(line)
		if cells == nil {
			inTable, pending = false, nil
			continue
		}

		switch {
		case !inTable:
			inTable, pending, cols = true, cells, positional
		case pending != nil && isSeparatorRow(cells):
			if detected, ok := detectColumns(pending); ok {
				cols = detected
			}
			pending = nil
		case pending != nil:
			// A table without a separator row has no header.
			items = append(items, cols.item(pending), cols.item(cells))
			pending = nil
		case isSeparatorRow(cells):
		default:
			items = append(items, cols.item(cells))
		}
	}
	if pending != nil {
		items = append(items, cols.item(pending))
	}
	return items
}
