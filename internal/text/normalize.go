// Package text provides the shared text processing used by the matching engine:
// normalization, feature extraction and token similarity.
// Catalog descriptions and bid documents are Turkish, so case folding follows
// Turkish rules (I → ı, İ → i) rather than plain ASCII lowering.
package text

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// A cases.Caser keeps state between calls and must not be shared across
// goroutines, so each call borrows one from the pool.
var caserPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Turkish)
		return &c
	},
}

// letterSubstitutions folds locale letters that documents spell inconsistently.
// Upper-case sources lower to "ı" while hand-typed ones often use "i".
var letterSubstitutions = map[rune]rune{
	'ı': 'i',
}

// noiseSymbols are letter-like symbols that carry no matching signal.
// The diameter sign is usually written with ø, which unicode treats as a letter.
var noiseSymbols = map[rune]struct{}{
	'ø': {}, '⌀': {}, '∅': {},
}

// parenRe matches a parenthesized aside like "(beton hariç)".
var parenRe = regexp.MustCompile(`\([^)]*\)`)

// spaceRe matches runs of whitespace.
var spaceRe = regexp.MustCompile(`\s+`)

// Lower applies compatibility normalization (so "m²" becomes "m2") and Turkish
// lower-casing. Punctuation is preserved.
func Lower(s string) string {
	if s == "" {
		return ""
	}
	c := caserPool.Get().(*cases.Caser)
	defer caserPool.Put(c)
	return c.String(norm.NFKC.String(s))
}

// Normalize canonicalizes text for comparison: Lower, letter substitution,
// noise symbols and punctuation to spaces, whitespace collapsed and trimmed.
// Normalize is idempotent.
//
// Example: "Ø8 DEMİR (nervürlü) - montajı" → "8 demir nervürlü montaji"
func Normalize(s string) string {
	s = Lower(s)
	if s == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if sub, ok := letterSubstitutions[r]; ok {
			r = sub
		}
		_, noise := noiseSymbols[r]
		if noise || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// RemoveParenthetical strips "(...)" groups and collapses the remaining whitespace.
// Explanatory asides in bid documents add words that hurt matching.
func RemoveParenthetical(s string) string {
	s = parenRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// NoSpaces returns the normalized text with all whitespace removed,
// so "her türlü" and "hertürlü" compare equal.
func NoSpaces(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// Tokens normalizes s and returns the words of at least minLen runes.
func Tokens(s string, minLen int) []string {
	return filterTokens(strings.Fields(Normalize(s)), minLen)
}

// SplitNormalized splits already normalized text into words of at least minLen runes.
func SplitNormalized(normalized string, minLen int) []string {
	return filterTokens(strings.Fields(normalized), minLen)
}

func filterTokens(words []string, minLen int) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

// StripCode reduces a catalog code to lower-case letters and digits,
// so "15.010.1001", "15 010 1001" and "150101001" compare equal.
func StripCode(s string) string {
	s = Lower(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if sub, ok := letterSubstitutions[r]; ok {
			r = sub
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// vocabulary builds a lookup set holding the normalized form of each word.
func vocabulary(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[Normalize(w)] = struct{}{}
	}
	return set
}

// Stopwords are connective words that carry no matching signal in
// bill-of-quantities descriptions.
var Stopwords = vocabulary(
	"ve", "ile", "veya", "için", "bir", "türlü", "her", "kadar", "hariç", "dahil",
)

// actionVerbs are the verbal nouns that close a work item description
// ("... yerine konulması", "... sökülmesi").
var actionVerbs = []string{
	Normalize("yapılması"), Normalize("edilmesi"), Normalize("temini"),
	Normalize("yerine"), Normalize("montajı"), Normalize("sökülmesi"),
	Normalize("atılması"), Normalize("taşınması"), Normalize("konulması"),
	Normalize("döşenmesi"),
}

// IsStopword reports whether a normalized token is a stop-word.
func IsStopword(token string) bool {
	_, ok := Stopwords[token]
	return ok
}

// IsActionVerb reports whether a normalized token contains an action verb.
func IsActionVerb(token string) bool {
	for _, v := range actionVerbs {
		if strings.Contains(token, v) {
			return true
		}
	}
	return false
}

// ImportantTokens marks the tokens that immediately precede an action verb.
// They name the object of the work ("boru döşenmesi") and may be weighted up.
func ImportantTokens(tokens []string) map[int]bool {
	marked := make(map[int]bool)
	for i := 1; i < len(tokens); i++ {
		if IsActionVerb(tokens[i]) && !IsActionVerb(tokens[i-1]) {
			marked[i-1] = true
		}
	}
	return marked
}
