package search

import (
	"math"
	"strings"
)

// Interactive search ranks hits on a wider scale than the scorer so that code
// hits and description hits can be compared: description scores are scaled
// by DescriptionScale into [0, 1000] and code hits sit at fixed ranks above.
const DescriptionScale = 10.0

// HitKind says which signal produced a search hit's rank.
type HitKind string

const (
	KindCodeExact    HitKind = "code_exact"
	KindCodePrefix   HitKind = "code_prefix"
	KindCodeContains HitKind = "code_contains"
	KindDescription  HitKind = "description"
)

// CodePolicy ranks a catalog code against a search query.
// Both sides are compared after StripCode.
type CodePolicy struct {
	ExactRank    float64 // stripped query equals stripped code (default: 2100)
	PrefixRank   float64 // code starts with query (default: 1500)
	ContainsRank float64 // code contains query (default: 1000)

	// MinPartialLen is the shortest query that may hit by prefix or substring.
	MinPartialLen int // default: 3
}

// DefaultCodePolicy places exact code hits above the 2000 regime boundary.
func DefaultCodePolicy() CodePolicy {
	return CodePolicy{
		ExactRank:     2100,
		PrefixRank:    1500,
		ContainsRank:  1000,
		MinPartialLen: 3,
	}
}

// Rank returns the rank and kind of a code hit, or 0 when the code does not match.
func (p CodePolicy) Rank(strippedQuery, strippedCode string) (float64, HitKind) {
	if strippedQuery == "" || strippedCode == "" {
		return 0, ""
	}
	if strippedCode == strippedQuery {
		return p.ExactRank, KindCodeExact
	}
	if len(strippedQuery) < p.MinPartialLen {
		return 0, ""
	}
	if strings.HasPrefix(strippedCode, strippedQuery) {
		return p.PrefixRank, KindCodePrefix
	}
	if strings.Contains(strippedCode, strippedQuery) {
		return p.ContainsRank, KindCodeContains
	}
	return 0, ""
}

// RegimePolicy picks the acceptance threshold from the best rank found.
// The clearer the winner, the fewer near-miss competitors survive.
type RegimePolicy struct {
	CodeAbove     float64 // best rank above this is a strong code hit (default: 2000)
	CodeThreshold float64 // threshold in the code regime (default: 1500)

	StrongAbove float64 // strong description hit (default: 900)
	StrongRatio float64 // threshold = best * ratio (default: 0.95)

	DecentAbove float64 // decent hit (default: 500)
	DecentRatio float64 // threshold = best * ratio (default: 0.8)

	Floor float64 // threshold otherwise (default: 60)
}

// DefaultRegimePolicy returns the standard regime boundaries.
func DefaultRegimePolicy() RegimePolicy {
	return RegimePolicy{
		CodeAbove:     2000,
		CodeThreshold: 1500,
		StrongAbove:   900,
		StrongRatio:   0.95,
		DecentAbove:   500,
		DecentRatio:   0.8,
		Floor:         60,
	}
}

// Threshold returns the cutoff for a best rank. ok is false when the best
// rank is zero or not finite, in which case nothing should be shown.
func (p RegimePolicy) Threshold(maxRank float64) (threshold float64, ok bool) {
	if maxRank == 0 || math.IsNaN(maxRank) || math.IsInf(maxRank, 0) {
		return 0, false
	}
	switch {
	case maxRank > p.CodeAbove:
		return p.CodeThreshold, true
	case maxRank > p.StrongAbove:
		return maxRank * p.StrongRatio, true
	case maxRank > p.DecentAbove:
		return maxRank * p.DecentRatio, true
	}
	return p.Floor, true
}
