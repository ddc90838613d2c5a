// Package search implements the matching engine over a reference catalog:
// a rule-based scorer, an inverted word index for candidate selection,
// thresholded line matching, and adaptive interactive search.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/bad33ndj3/mcp-poz-match/internal/text"
)

// ─────────────────────────────────────────────────────────────────────────────
// Types
// ─────────────────────────────────────────────────────────────────────────────

// MaxScore is the upper bound of every score the Scorer returns.
const MaxScore = 100.0

// ScoreConfig holds the constants of the scoring rules.
type ScoreConfig struct {
	PrefixScore     float64 // Candidate is a prefix of the query (default: 95)
	MinTokenLen     int     // Shortest token compared (default: 2)
	LongTokenLen    int     // Tokens this long weigh more (default: 5)
	LongTokenWeight float64 // Weight of long tokens (default: 2)

	// ImportantWeight is added to a candidate token's weight when its best
	// query match directly precedes an action verb ("boru döşenmesi").
	// Default 0 leaves the weighting untouched.
	ImportantWeight float64

	DimensionConflict float64 // Subtracted when no candidate dimension is in the query (default: 40)
	DimensionMissing  float64 // Subtracted per missing candidate dimension (default: 15)
	DimensionMatch    float64 // Added when all candidate dimensions are present (default: 20)

	ContainmentBonus     float64 // Added when every candidate token is inside the query (default: 10)
	ContainmentMinTokens int     // Tokens needed for the containment bonus (default: 2)
}

// DefaultScoreConfig returns the standard scoring constants.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		PrefixScore:          95,
		MinTokenLen:          2,
		LongTokenLen:         5,
		LongTokenWeight:      2,
		ImportantWeight:      0,
		DimensionConflict:    40,
		DimensionMissing:     15,
		DimensionMatch:       20,
		ContainmentBonus:     10,
		ContainmentMinTokens: 2,
	}
}

// Breakdown explains how a score was reached.
type Breakdown struct {
	// MissingNumbers lists candidate numbers absent from the query.
	// A non-empty list fails the numeric gate and forces the score to 0.
	MissingNumbers []string `json:"missing_numbers,omitempty"`

	Exact  bool `json:"exact"`  // normalized texts are equal
	Prefix bool `json:"prefix"` // candidate is a prefix of the query

	Lexical          float64 `json:"lexical"`
	DimensionAdjust  float64 `json:"dimension_adjust"`
	ContainmentBonus float64 `json:"containment_bonus"`

	QueryDimensions     []string `json:"query_dimensions,omitempty"`
	CandidateDimensions []string `json:"candidate_dimensions,omitempty"`

	// Raw is the score before clamping and may be negative.
	Raw   float64 `json:"raw"`
	Score float64 `json:"score"`
}

// GateFailed reports whether the numeric gate rejected the candidate.
func (b Breakdown) GateFailed() bool { return len(b.MissingNumbers) > 0 }

// Scorer rates how well a query satisfies a candidate description.
//
// Scoring is asymmetric: the candidate is the requirement. Reference
// descriptions are short and standardized, while query lines carry extra
// context, so every candidate token must find a partner in the query but
// not the other way round.
type Scorer struct {
	config ScoreConfig
}

// NewScorer creates a scorer with the given constants.
func NewScorer(cfg ScoreConfig) *Scorer {
	return &Scorer{config: cfg}
}

// NewDefaultScorer creates a scorer with DefaultScoreConfig.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultScoreConfig())
}

// Config returns the scorer's constants.
func (s *Scorer) Config() ScoreConfig { return s.config }

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxScore:
		return MaxScore
	}
	return v
}

// missingNumbers returns the candidate numbers that the query lacks.
func missingNumbers(cleanQuery, cleanCandidate string) []string {
	want := text.ExtractNumbers(cleanCandidate)
	if len(want) == 0 {
		return nil
	}
	have := stringSet(text.ExtractNumbers(cleanQuery))
	var missing []string
	for _, n := range want {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoring
// ─────────────────────────────────────────────────────────────────────────────

// Score returns the clamped [0, 100] score of query against candidate.
func (s *Scorer) Score(query, candidate string) float64 {
	return s.Explain(query, candidate).Score
}

// Explain scores query against candidate and reports every signal used.
func (s *Scorer) Explain(query, candidate string) Breakdown {
	var b Breakdown
	cfg := s.config

	cleanQuery := text.Lower(text.RemoveParenthetical(query))
	cleanCandidate := text.Lower(text.RemoveParenthetical(candidate))

	// Numbers in a reference description are hard requirements:
	// Ø8 and Ø10 rebar are different items.
	if missing := missingNumbers(cleanQuery, cleanCandidate); len(missing) > 0 {
		b.MissingNumbers = missing
		return b
	}

	normQuery := text.Normalize(cleanQuery)
	normCandidate := text.Normalize(cleanCandidate)
	if normQuery == "" || normCandidate == "" {
		return b
	}
	if normQuery == normCandidate || text.NoSpaces(normQuery) == text.NoSpaces(normCandidate) {
		b.Exact = true
		b.Raw, b.Score = MaxScore, MaxScore
		return b
	}
	if strings.HasPrefix(normQuery, normCandidate) {
		b.Prefix = true
		b.Raw, b.Score = cfg.PrefixScore, clamp(cfg.PrefixScore)
		return b
	}

	queryTokens := text.SplitNormalized(normQuery, cfg.MinTokenLen)
	candidateTokens := text.SplitNormalized(normCandidate, cfg.MinTokenLen)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return b
	}

	b.Lexical = s.lexical(queryTokens, candidateTokens)
	b.DimensionAdjust, b.QueryDimensions, b.CandidateDimensions = s.dimensionAdjust(cleanQuery, cleanCandidate)
	if s.contained(queryTokens, candidateTokens) {
		b.ContainmentBonus = cfg.ContainmentBonus
	}

	b.Raw = b.Lexical + b.DimensionAdjust + b.ContainmentBonus
	b.Score = clamp(b.Raw)
	return b
}

// lexical computes the weighted share of candidate tokens found in the query.
func (s *Scorer) lexical(queryTokens, candidateTokens []string) float64 {
	cfg := s.config
	important := text.ImportantTokens(queryTokens)

	var sum, total float64
	for _, ct := range candidateTokens {
		if text.IsStopword(ct) {
			continue
		}

		best, bestAt := 0.0, -1
		for qi, qt := range queryTokens {
			if text.IsStopword(qt) {
				continue
			}
			if sc := text.TokenScore(ct, qt); sc > best {
				best, bestAt = sc, qi
			}
			if best == 1 {
				break
			}
		}

		weight := 1.0
		if utf8.RuneCountInString(ct) >= cfg.LongTokenLen {
			weight = cfg.LongTokenWeight
		}
		if bestAt >= 0 && important[bestAt] {
			weight += cfg.ImportantWeight
		}

		sum += best * weight
		total += weight
	}

	if total == 0 {
		return 0
	}
	return MaxScore * sum / total
}

// dimensionAdjust rewards candidates whose sizes and units all appear in the
// query and penalizes conflicting or missing ones.
func (s *Scorer) dimensionAdjust(cleanQuery, cleanCandidate string) (float64, []string, []string) {
	cfg := s.config
	candDims := text.ExtractDimensions(cleanCandidate)
	queryDims := text.ExtractDimensions(cleanQuery)
	if len(candDims) == 0 {
		return 0, queryDims, candDims
	}

	have := stringSet(queryDims)
	found := 0
	for _, d := range candDims {
		if _, ok := have[d]; ok {
			found++
		}
	}

	switch {
	case found == 0 && len(queryDims) > 0:
		return -cfg.DimensionConflict, queryDims, candDims
	case found > 0 && found < len(candDims):
		return -cfg.DimensionMissing * float64(len(candDims)-found), queryDims, candDims
	case found == len(candDims):
		return cfg.DimensionMatch, queryDims, candDims
	}
	return 0, queryDims, candDims
}

// contained reports whether every candidate token occurs inside some query
// token and there are enough of them to make that meaningful.
func (s *Scorer) contained(queryTokens, candidateTokens []string) bool {
	count := 0
	for _, ct := range candidateTokens {
		if text.IsStopword(ct) {
			continue
		}
		found := false
		for _, qt := range queryTokens {
			if strings.Contains(qt, ct) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		count++
	}
	return count >= s.config.ContainmentMinTokens
}
