// Package domain contains core data types used across the poz matching server.
// These are pure data structures with no behavior - the "nouns" of the application:
// reference items from a priced catalog, query lines from a bid document, and the
// priced match results the engine produces for them.
package domain

import "time"

// CacheVersion is incremented when the snapshot cache format changes.
// This ensures old, incompatible caches are rejected and rebuilt.
const CacheVersion = 2

// DefaultThreshold is the acceptance cutoff for bulk line matching.
// A fuzzy match is accepted only when its score is strictly greater.
const DefaultThreshold = 40.0

// ReferenceItem is one standardized, priced catalog entry (a "poz").
//
// Example: {Code: "15.010.1001", Description: "Makine ile yumuşak toprak kazılması",
// Unit: "m3", UnitPrice: 25.50}
type ReferenceItem struct {
	// Code identifies the item inside its catalog (e.g. "15.010.1001")
	Code string `json:"code"`

	// Description is the text matched against query lines
	Description string `json:"description"`

	// Unit is the unit of measure (m3, kg, adet, ...)
	Unit string `json:"unit"`

	// UnitPrice is the price for one Unit
	UnitPrice float64 `json:"unitPrice"`
}

// QueryLine is one free-text row extracted from a source document.
// Code, Unit and Quantity are optional declarations supplied by the caller.
type QueryLine struct {
	Text     string  `json:"text"`
	Code     string  `json:"code,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
}

// MatchMethod records how a result's item was selected.
type MatchMethod string

const (
	MethodNone   MatchMethod = "none"   // nothing cleared the threshold
	MethodCode   MatchMethod = "code"   // exact code match
	MethodFuzzy  MatchMethod = "fuzzy"  // indexed description scoring
	MethodManual MatchMethod = "manual" // chosen by a human
)

// MatchResult is the engine's answer for a single query line.
// Item is nil when no candidate cleared the acceptance threshold; Score is still
// reported so near-misses can be reviewed.
type MatchResult struct {
	ID         string         `json:"id"`
	Query      QueryLine      `json:"query"`
	Item       *ReferenceItem `json:"item"`
	Score      float64        `json:"score"`
	Quantity   float64        `json:"quantity"`
	TotalPrice float64        `json:"totalPrice"`
	Method     MatchMethod    `json:"method"`
}

// Matched reports whether the result carries an accepted item.
func (r MatchResult) Matched() bool { return r.Item != nil }

// BatchSummary aggregates a batch of match results.
type BatchSummary struct {
	TotalItems     int     `json:"totalItems"`
	MatchedItems   int     `json:"matchedItems"`
	UnmatchedItems int     `json:"unmatchedItems"`
	TotalCost      float64 `json:"totalCost"`
}

// CatalogSnapshot is a parsed catalog import, cached so that re-importing an
// unchanged source skips parsing.
type CatalogSnapshot struct {
	// SourceID is derived from the import path or URL (SHA256 prefix)
	SourceID string `json:"source_id"`

	// Source is the original path or URL
	Source string `json:"source"`

	// FileHash is a SHA256 of the source contents at import time
	FileHash string `json:"file_hash"`

	// ImportedAt is when the snapshot was parsed
	ImportedAt time.Time `json:"imported_at"`

	// Items are the reference items found in the source
	Items []ReferenceItem `json:"items"`

	// NumItems is len(Items), stored for quick listing
	NumItems int `json:"num_items"`

	// Version identifies the cache format version
	Version int `json:"version"`
}
