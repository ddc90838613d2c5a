package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// jsonItem accepts both camelCase and snake_case price keys, and codes or
// prices written as either strings or numbers.
type jsonItem struct {
	Code           flexText  `json:"code"`
	Description    flexText  `json:"description"`
	Unit           flexText  `json:"unit"`
	UnitPrice      flexPrice `json:"unitPrice"`
	UnitPriceSnake flexPrice `json:"unit_price"`
}

type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = flexText(s)
	default:
		*t = flexText(data)
	}
	return nil
}

type flexPrice float64

func (p *flexPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = 0
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = flexPrice(parsePrice(s))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*p = flexPrice(f)
	}
	return nil
}

var errNoItems = errors.New(`expected an array or an object with an "items" array`)

// parseJSON reads a top-level array of items or an object {"items": [...]}.
func parseJSON(content []byte) ([]domain.ReferenceItem, error) {
	content = bytes.TrimSpace(bytes.TrimPrefix(content, utf8BOM))

	var raw []jsonItem
	switch {
	case len(content) == 0:
		return nil, fmt.Errorf("decode json catalog: %w", errNoItems)
	case content[0] == '[':
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	case content[0] == '{':
		var doc struct {
			Items *[]jsonItem `json:"items"`
		}
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
		if doc.Items == nil {
			return nil, fmt.Errorf("decode json catalog: %w", errNoItems)
		}
		raw = *doc.Items
	default:
		return nil, fmt.Errorf("decode json catalog: %w", errNoItems)
	}

	items := make([]domain.ReferenceItem, 0, len(raw))
	for _, r := range raw {
		price := float64(r.UnitPrice)
		if price == 0 {
			price = float64(r.UnitPriceSnake)
		}
		items = append(items, domain.ReferenceItem{
			Code:        strings.TrimSpace(string(r.Code)),
			Description: string(r.Description),
			Unit:        string(r.Unit),
			UnitPrice:   price,
		})
	}
	return items, nil
}
