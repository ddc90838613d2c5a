package text

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// containmentScore is awarded when one token contains the other ("beton" / "betonarme").
	containmentScore = 0.85

	// nearMatchFloor is the edit similarity a token pair must exceed to count at all.
	// Below it, short unrelated words would match each other loosely.
	nearMatchFloor = 0.8
)

// Levenshtein returns the classic edit distance between a and b, counting
// insertions, deletions and substitutions over runes at cost 1.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// WordSimilarity returns 1 - levenshtein/maxLen in [0, 1].
// Identical tokens score 1; tokens shorter than 2 runes score 0.
func WordSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la < 2 || lb < 2 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(max(la, lb))
}

// TokenScore compares two normalized tokens: 1 for equality, 0.85 when one
// contains the other, the edit similarity when it exceeds 0.8, otherwise 0.
func TokenScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentScore
	}

	// The edit distance is at least the length difference, so the
	// similarity is bounded by shorter/longer. Skip the DP when that
	// bound cannot clear the floor.
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longer, shorter := max(la, lb), min(la, lb)
	if float64(shorter)/float64(longer) <= nearMatchFloor {
		return 0
	}

	if sim := WordSimilarity(a, b); sim > nearMatchFloor {
		return sim
	}
	return 0
}
