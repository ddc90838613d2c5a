package search

import (
	"sort"
	"strings"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/text"
)

// DefaultSearchLimit caps the hits returned by an interactive search.
const DefaultSearchLimit = 100

// SearchHit is one ranked item of an interactive search.
type SearchHit struct {
	Item domain.ReferenceItem `json:"item"`
	Rank float64              `json:"rank"`
	Kind HitKind              `json:"kind"`
}

// Searcher runs interactive catalog searches: every item is ranked by the
// better of its description and code relevance, an adaptive threshold drops
// near misses, and duplicate entries are removed.
type Searcher struct {
	scorer  *Scorer
	codes   CodePolicy
	regimes RegimePolicy
	limit   int
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithSearchScorer replaces the default scorer.
func WithSearchScorer(s *Scorer) SearcherOption {
	return func(sr *Searcher) { sr.scorer = s }
}

// WithCodePolicy replaces the code ranking policy.
func WithCodePolicy(p CodePolicy) SearcherOption {
	return func(sr *Searcher) { sr.codes = p }
}

// WithRegimePolicy replaces the adaptive threshold policy.
func WithRegimePolicy(p RegimePolicy) SearcherOption {
	return func(sr *Searcher) { sr.regimes = p }
}

// WithSearchLimit caps the number of hits.
func WithSearchLimit(n int) SearcherOption {
	return func(sr *Searcher) {
		if n > 0 {
			sr.limit = n
		}
	}
}

// NewSearcher creates a searcher with the default policies.
func NewSearcher(opts ...SearcherOption) *Searcher {
	s := &Searcher{
		scorer:  NewDefaultScorer(),
		codes:   DefaultCodePolicy(),
		regimes: DefaultRegimePolicy(),
		limit:   DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// scoredItem pairs a catalog position with its rank.
type scoredItem struct {
	id   int
	rank float64
	kind HitKind
}

// Search returns the catalog items relevant to query, best first.
//
// The description side reuses the line scorer with the roles swapped: the
// search query is the requirement and the description must satisfy it, so
// "c30" finds "C25/30 hazır beton" but not "C20/25 hazır beton".
func (s *Searcher) Search(query string, cat *Catalog) []SearchHit {
	query = strings.TrimSpace(query)
	if query == "" || cat.Len() == 0 {
		return nil
	}
	strippedQuery := text.StripCode(query)

	scored := make([]scoredItem, 0, cat.Len())
	maxRank := 0.0
	for i, item := range cat.items {
		rank := DescriptionScale * s.scorer.Score(item.Description, query)
		kind := KindDescription
		if codeRank, codeKind := s.codes.Rank(strippedQuery, cat.codes[i]); codeRank > rank {
			rank, kind = codeRank, codeKind
		}
		if rank <= 0 {
			continue
		}
		scored = append(scored, scoredItem{id: i, rank: rank, kind: kind})
		maxRank = max(maxRank, rank)
	}

	threshold, ok := s.regimes.Threshold(maxRank)
	if !ok {
		return nil
	}

	kept := scored[:0]
	for _, sc := range scored {
		if sc.rank > threshold {
			kept = append(kept, sc)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].rank > kept[j].rank
	})

	return s.dedupe(kept, cat)
}

// dedupe drops items whose code or normalized description was already seen
// higher in the list, and applies the result cap.
func (s *Searcher) dedupe(sorted []scoredItem, cat *Catalog) []SearchHit {
	seenCodes := make(map[string]struct{})
	seenDescriptions := make(map[string]struct{})

	hits := make([]SearchHit, 0, min(len(sorted), s.limit))
	for _, sc := range sorted {
		if len(hits) >= s.limit {
			break
		}
		code := cat.codes[sc.id] // stripped, so "15.010.1001" and "15 010 1001" are one code
		desc := cat.fullDesc[sc.id]
		if _, dup := seenCodes[code]; dup && code != "" {
			continue
		}
		if _, dup := seenDescriptions[desc]; dup {
			continue
		}
		if code != "" {
			seenCodes[code] = struct{}{}
		}
		seenDescriptions[desc] = struct{}{}
		hits = append(hits, SearchHit{Item: cat.items[sc.id], Rank: sc.rank, Kind: sc.kind})
	}
	return hits
}
