package parser

import (
	"strconv"
	"strings"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/text"
)

// columns holds the position of each item field in a table row, -1 if absent.
type columns struct {
	code, description, unit, price int
}

// positional is the layout used when a table has no recognizable header:
// code, description, unit, unit price.
var positional = columns{code: 0, description: 1, unit: 2, price: 3}

type field int

const (
	fieldCode field = iota
	fieldDescription
	fieldUnit
	fieldPrice
)

// headerAliases maps normalized header cells to the field they name.
var headerAliases = func() map[string]field {
	aliases := map[field][]string{
		fieldCode:        {"code", "kod", "poz", "poz no", "poz kodu", "poz numarası"},
		fieldDescription: {"description", "desc", "tanım", "tanımı", "açıklama", "iş kalemi", "imalat"},
		fieldUnit:        {"unit", "birim", "ölçü birimi", "birimi"},
		fieldPrice:       {"unitprice", "unit price", "unit_price", "price", "fiyat", "birim fiyat", "birim fiyatı", "birim fiyatı tl"},
	}
	m := make(map[string]field)
	for f, names := range aliases {
		for _, n := range names {
			m[text.Normalize(n)] = f
		}
	}
	return m
}()

// detectColumns maps a header row. ok is false unless at least the code and
// description columns are named.
func detectColumns(header []string) (columns, bool) {
	c := columns{code: -1, description: -1, unit: -1, price: -1}
	for i, cell := range header {
		f, ok := headerAliases[text.Normalize(cell)]
		if !ok {
			continue
		}
		switch f {
		case fieldCode:
			if c.code < 0 {
				c.code = i
			}
		case fieldDescription:
			if c.description < 0 {
				c.description = i
			}
		case fieldUnit:
			if c.unit < 0 {
				c.unit = i
			}
		case fieldPrice:
			if c.price < 0 {
				c.price = i
			}
		}
	}
	return c, c.code >= 0 && c.description >= 0
}

// item builds a reference item from one row.
func (c columns) item(row []string) domain.ReferenceItem {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return domain.ReferenceItem{
		Code:        cell(c.code),
		Description: cell(c.description),
		Unit:        cell(c.unit),
		UnitPrice:   parsePrice(cell(c.price)),
	}
}

// parsePrice reads "1250", "1250.75", "1.250,75" or "1,250.75 TL".
// Whichever separator comes last is the decimal point. Unreadable prices are 0.
func parsePrice(s string) float64 {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}
		return -1
	}, s)
	if s == "" {
		return 0
	}

	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// hasDigit reports whether s contains an ASCII digit.
func hasDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}
