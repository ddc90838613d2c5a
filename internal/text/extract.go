package text

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// numberRe matches integer and decimal literals ("8", "1,5", "2.75").
var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// unitEnd ends a unit: RE2's \b only knows ASCII word characters, so "2 ağır"
// would otherwise read as 2 amperes. The consumed rune is never part of group 1.
const unitEnd = `(?:[^\p{L}\p{N}]|$)`

// dimensionRe matches a number or range followed by a unit: "8 cm", "14-28mm", "1,5 m3".
var dimensionRe = regexp.MustCompile(
	`\b(\d+(?:[.,]\d+)?(?:-\d+(?:[.,]\d+)?)?\s*(?:mm2|mm|cm|mt|m2|m3|m|kg|gr|ton|lt|adet|ad|kva|kw|a))` + unitEnd)

// calcRe matches computed-quantity annotations such as "(2x3)=6".
var calcRe = regexp.MustCompile(`\(\s*\d+(?:[.,]\d+)?\s*[x*]\s*\d+(?:[.,]\d+)?\s*\)\s*=\s*\d+(?:[.,]\d+)?`)

// productRe matches bare products such as "20x30" or "2,5 * 4".
var productRe = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s*[x*]\s*\d+(?:[.,]\d+)?\b`)

// specUnitRe matches the unit vocabulary of technical specs (note "v" for volts).
var specUnitRe = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?\s*(?:mm2|mm|cm|m|kg|ton|kw|kva|a|v))` + unitEnd)

// hierarchicalCodeRe matches catalog codes like "15.010.1001".
var hierarchicalCodeRe = regexp.MustCompile(`\b\d{1,2}\.\d{3}\.\d{3,4}\b`)

// quantityRe matches a quantity written next to its unit: "12 m3", "4,5 ton".
var quantityRe = regexp.MustCompile(`(?i)(\d+[.,]?\d*)\s*(m[23]|kg|ton|adet|ad)` + unitEnd)

// compact removes whitespace and rewrites decimal commas as dots,
// so "1,5 m" and "1.5m" compare equal.
func compact(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ReplaceAll(s, ",", ".")
}

// ExtractNumbers returns every numeric literal in order of appearance,
// with decimal commas rewritten as dots.
//
// Example: "Ø8 ve 1,5 m" → ["8", "1.5"]
func ExtractNumbers(s string) []string {
	raw := numberRe.FindAllString(s, -1)
	out := make([]string, len(raw))
	for i, n := range raw {
		out[i] = strings.ReplaceAll(n, ",", ".")
	}
	return out
}

// ExtractDimensions returns number-with-unit tokens without internal whitespace.
//
// Example: "8 cm kalınlığında 14-28 mm agrega" → ["8cm", "14-28mm"]
func ExtractDimensions(s string) []string {
	raw := findTokens(dimensionRe, Lower(s))
	out := make([]string, len(raw))
	for i, d := range raw {
		out[i] = compact(d)
	}
	return out
}

// findTokens returns every match of re, or its first group when it has one.
func findTokens(re *regexp.Regexp, s string) []string {
	if re.NumSubexp() == 0 {
		return re.FindAllString(s, -1)
	}
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m[1]
	}
	return out
}

// ExtractTechnicalSpecs returns computed-quantity annotations, bare products and
// unit specs, compacted. A spec can appear more than once when patterns overlap.
//
// Example: "(2x3)=6 adet 20x30 kutu, 5 kw" → ["(2x3)=6", "2x3", "20x30", "5kw"]
func ExtractTechnicalSpecs(s string) []string {
	t := Lower(s)
	var specs []string
	for _, re := range []*regexp.Regexp{calcRe, productRe, specUnitRe} {
		for _, m := range findTokens(re, t) {
			specs = append(specs, compact(m))
		}
	}
	return specs
}

// ExtractCodes returns code-like tokens in order of appearance: hierarchical
// codes first, then any field mixing digits with ".", "/" or "-" separators.
// Returned values are raw; compare them with StripCode.
func ExtractCodes(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		key := StripCode(tok)
		if len(key) <= 2 {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}

	for _, m := range hierarchicalCodeRe.FindAllString(s, -1) {
		add(m)
	}
	for _, field := range strings.Fields(s) {
		field = strings.Trim(field, "()[]{},;:")
		if strings.IndexFunc(field, unicode.IsDigit) < 0 {
			continue
		}
		if !strings.ContainsAny(field, "./-") {
			continue
		}
		add(field)
	}
	return out
}

// ExtractQuantity finds a quantity written next to its unit ("12 m3").
// The boolean is false when the text declares none.
func ExtractQuantity(s string) (float64, bool) {
	m := quantityRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	q, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil || q <= 0 {
		return 0, false
	}
	return q, true
}
