package search

import (
	"sort"
	"sync"

	"github.com/bad33ndj3/mcp-poz-match/internal/text"
)

const (
	// MinIndexWordLen is the shortest word that gets a posting list.
	MinIndexWordLen = 3

	// DefaultCandidateLimit caps how many items a query is scored against.
	DefaultCandidateLimit = 50
)

// WordIndex maps normalized description words to the items that contain them.
// Scoring only the items that share a word with the query keeps matching
// bounded once catalogs reach tens of thousands of items.
type WordIndex struct {
	postings map[string][]int
}

var emptyIndex = &WordIndex{postings: map[string][]int{}}

// hitCounts tallies posting hits per item index.
type hitCounts map[int]int

// ─────────────────────────────────────────────────────────────────────────────
// Object Pool (one tally map per query)
// ─────────────────────────────────────────────────────────────────────────────

var tallyPool = sync.Pool{
	New: func() any { return make(hitCounts, 64) },
}

func borrowTally() hitCounts   { return tallyPool.Get().(hitCounts) }
func returnTally(h hitCounts) { clear(h); tallyPool.Put(h) }

// indexWords returns the distinct significant words of normalized text.
func indexWords(normalized string) []string {
	words := text.SplitNormalized(normalized, MinIndexWordLen)
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if text.IsStopword(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// buildIndex creates posting lists from normalized descriptions.
// Posting lists are in ascending item order.
func buildIndex(normalized []string) *WordIndex {
	idx := &WordIndex{postings: make(map[string][]int)}
	for i, desc := range normalized {
		for _, w := range indexWords(desc) {
			idx.postings[w] = append(idx.postings[w], i)
		}
	}
	return idx
}

// Words returns the number of distinct indexed words.
func (w *WordIndex) Words() int {
	return len(w.postings)
}

// Candidates returns up to limit item indexes that share at least one
// significant word with the query, most shared words first and catalog order
// among equals. limit <= 0 means DefaultCandidateLimit.
func (w *WordIndex) Candidates(query string, limit int) []int {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	words := indexWords(text.Normalize(text.RemoveParenthetical(query)))
	if len(words) == 0 {
		return nil
	}

	tally := borrowTally()
	defer returnTally(tally)

	for _, word := range words {
		for _, item := range w.postings[word] {
			tally[item]++
		}
	}
	if len(tally) == 0 {
		return nil
	}

	ids := make([]int, 0, len(tally))
	for id := range tally {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if tally[ids[i]] != tally[ids[j]] {
			return tally[ids[i]] > tally[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// Postings returns the item indexes indexed under a word (normalized first).
func (w *WordIndex) Postings(word string) []int {
	return w.postings[text.Normalize(word)]
}
