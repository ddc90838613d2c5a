package search

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/text"
	"github.com/google/uuid"
)

// Matcher prices query lines against a catalog: exact code first, then the
// best-scoring indexed candidate, accepted only above a threshold.
// A Matcher holds no per-call state and is safe for concurrent use.
type Matcher struct {
	scorer         *Scorer
	threshold      float64
	candidateLimit int
	workers        int
	newID          func() string
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithScorer replaces the default scorer.
func WithScorer(s *Scorer) MatcherOption {
	return func(m *Matcher) { m.scorer = s }
}

// WithThreshold sets the default acceptance threshold.
func WithThreshold(t float64) MatcherOption {
	return func(m *Matcher) { m.threshold = t }
}

// WithCandidateLimit caps the candidates scored per line.
func WithCandidateLimit(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.candidateLimit = n
		}
	}
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithIDGenerator replaces the result ID source (uuid by default).
func WithIDGenerator(f func() string) MatcherOption {
	return func(m *Matcher) { m.newID = f }
}

// NewMatcher creates a matcher with DefaultThreshold, DefaultCandidateLimit
// and one worker per CPU.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		scorer:         NewDefaultScorer(),
		threshold:      domain.DefaultThreshold,
		candidateLimit: DefaultCandidateLimit,
		workers:        runtime.GOMAXPROCS(0),
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the default acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Scorer returns the scorer used for fuzzy candidates.
func (m *Matcher) Scorer() *Scorer { return m.scorer }

// ─────────────────────────────────────────────────────────────────────────────
// Single line
// ─────────────────────────────────────────────────────────────────────────────

// Match matches one line using the default threshold.
func (m *Matcher) Match(line domain.QueryLine, cat *Catalog) domain.MatchResult {
	return m.MatchWithThreshold(line, cat, m.threshold)
}

// MatchWithThreshold matches one line, accepting a fuzzy candidate only when
// its score is strictly greater than threshold. Exact code hits always win.
func (m *Matcher) MatchWithThreshold(line domain.QueryLine, cat *Catalog, threshold float64) domain.MatchResult {
	res := domain.MatchResult{
		ID:       m.newID(),
		Query:    line,
		Quantity: lineQuantity(line),
		Method:   domain.MethodNone,
	}
	if cat.Len() == 0 {
		return res
	}

	if item, ok := matchCode(line, cat); ok {
		return accept(res, item, MaxScore, domain.MethodCode)
	}

	best, score := m.bestCandidate(line.Text, cat)
	res.Score = score
	if best >= 0 && score > threshold {
		return accept(res, cat.Item(best), score, domain.MethodFuzzy)
	}
	return res
}

// Assign prices a line with an item chosen by hand. Manual choices bypass
// scoring and carry the maximum score.
func (m *Matcher) Assign(line domain.QueryLine, item domain.ReferenceItem) domain.MatchResult {
	res := domain.MatchResult{
		ID:       m.newID(),
		Query:    line,
		Quantity: lineQuantity(line),
	}
	return accept(res, item, MaxScore, domain.MethodManual)
}

// matchCode looks for the declared code or a code-like token of the text.
func matchCode(line domain.QueryLine, cat *Catalog) (domain.ReferenceItem, bool) {
	if len(text.StripCode(line.Code)) > 2 {
		if item, ok := cat.ByCode(line.Code); ok {
			return item, true
		}
	}
	for _, code := range text.ExtractCodes(line.Text) {
		if item, ok := cat.ByCode(code); ok {
			return item, true
		}
	}
	return domain.ReferenceItem{}, false
}

// bestCandidate scores the indexed candidates and returns the best one.
// Equal scores are broken by shared technical specs such as "(2x3)=6",
// then by candidate rank.
func (m *Matcher) bestCandidate(query string, cat *Catalog) (int, float64) {
	candidates := cat.Index().Candidates(query, m.candidateLimit)
	if len(candidates) == 0 {
		return -1, 0
	}

	querySpecs := stringSet(text.ExtractTechnicalSpecs(query))
	best, bestScore, bestSpecs := -1, 0.0, -1
	for _, id := range candidates {
		score := m.scorer.Score(query, cat.Item(id).Description)
		if score < bestScore || score == 0 {
			continue
		}
		specs := sharedSpecs(querySpecs, cat.Item(id).Description)
		if score > bestScore || specs > bestSpecs {
			best, bestScore, bestSpecs = id, score, specs
		}
	}
	return best, bestScore
}

func sharedSpecs(querySpecs map[string]struct{}, description string) int {
	if len(querySpecs) == 0 {
		return 0
	}
	n := 0
	for _, spec := range text.ExtractTechnicalSpecs(description) {
		if _, ok := querySpecs[spec]; ok {
			n++
		}
	}
	return n
}

// lineQuantity prefers the declared quantity, then one written in the text,
// then 1.
func lineQuantity(line domain.QueryLine) float64 {
	if line.Quantity > 0 {
		return line.Quantity
	}
	if q, ok := text.ExtractQuantity(line.Text); ok {
		return q
	}
	return 1
}

func accept(res domain.MatchResult, item domain.ReferenceItem, score float64, method domain.MatchMethod) domain.MatchResult {
	res.Item = &item
	res.Score = score
	res.Method = method
	res.TotalPrice = roundCents(item.UnitPrice * res.Quantity)
	return res
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ─────────────────────────────────────────────────────────────────────────────
// Batches
// ─────────────────────────────────────────────────────────────────────────────

// BatchResult holds the results of a batch, in input order, and their totals.
type BatchResult struct {
	Results []domain.MatchResult
	Summary domain.BatchSummary
}

// MatchAll matches lines in parallel against a read-only catalog.
// If ctx is cancelled, the lines finished so far are returned together with
// ctx.Err(); each of them is complete and usable.
func (m *Matcher) MatchAll(ctx context.Context, lines []domain.QueryLine, cat *Catalog, threshold float64) (BatchResult, error) {
	results := make([]domain.MatchResult, len(lines))
	done := make([]bool, len(lines))

	workers := min(m.workers, len(lines))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = m.MatchWithThreshold(lines[i], cat, threshold)
				done[i] = true
			}
		}()
	}

feed:
	for i := range lines {
		// select picks randomly among ready cases, so check first.
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	finished := results[:0]
	for i, r := range results {
		if done[i] {
			finished = append(finished, r)
		}
	}

	return BatchResult{Results: finished, Summary: Summarize(finished)}, ctx.Err()
}

// Summarize counts matched and unmatched results and sums their cost.
func Summarize(results []domain.MatchResult) domain.BatchSummary {
	s := domain.BatchSummary{TotalItems: len(results)}
	for _, r := range results {
		if r.Matched() {
			s.MatchedItems++
		} else {
			s.UnmatchedItems++
		}
		s.TotalCost += r.TotalPrice
	}
	s.TotalCost = roundCents(s.TotalCost)
	return s
}
