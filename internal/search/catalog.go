package search

import (
	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/text"
)

// Catalog is an immutable, ordered set of reference items plus the lookups
// derived from them. Build one with NewCatalog whenever the items change and
// swap it in; readers holding the old catalog are unaffected.
type Catalog struct {
	items    []domain.ReferenceItem
	normDesc []string       // normalized descriptions without asides, parallel to items
	fullDesc []string       // normalized descriptions, parallel to items
	codes    []string       // stripped codes, parallel to items
	byCode   map[string]int // stripped code -> first item with that code
	index    *WordIndex
}

// NewCatalog copies items and builds the word index and code lookup.
// An empty item list yields a valid, empty catalog.
func NewCatalog(items []domain.ReferenceItem) *Catalog {
	c := &Catalog{
		items:    make([]domain.ReferenceItem, len(items)),
		normDesc: make([]string, len(items)),
		fullDesc: make([]string, len(items)),
		codes:    make([]string, len(items)),
		byCode:   make(map[string]int, len(items)),
	}
	copy(c.items, items)

	for i, it := range c.items {
		c.normDesc[i] = text.Normalize(text.RemoveParenthetical(it.Description))
		c.fullDesc[i] = text.Normalize(it.Description)
		code := text.StripCode(it.Code)
		c.codes[i] = code
		if code == "" {
			continue
		}
		if _, dup := c.byCode[code]; !dup {
			c.byCode[code] = i
		}
	}
	c.index = buildIndex(c.normDesc)
	return c
}

// Len returns the number of items. A nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Item returns the i-th item in catalog order.
func (c *Catalog) Item(i int) domain.ReferenceItem {
	return c.items[i]
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []domain.ReferenceItem {
	if c == nil {
		return nil
	}
	out := make([]domain.ReferenceItem, len(c.items))
	copy(out, c.items)
	return out
}

// ByCode looks an item up by code, ignoring punctuation and case.
func (c *Catalog) ByCode(code string) (domain.ReferenceItem, bool) {
	if c == nil {
		return domain.ReferenceItem{}, false
	}
	i, ok := c.byCode[text.StripCode(code)]
	if !ok {
		return domain.ReferenceItem{}, false
	}
	return c.items[i], true
}

// Index returns the catalog's word index.
func (c *Catalog) Index() *WordIndex {
	if c == nil {
		return emptyIndex
	}
	return c.index
}
