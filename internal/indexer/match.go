package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/search"
)

// MatchReport is the outcome of one batch matching run.
type MatchReport struct {
	RunID     string               `json:"runId"`
	Threshold float64              `json:"threshold"`
	Results   []domain.MatchResult `json:"results"`
	Summary   domain.BatchSummary  `json:"summary"`
}

// liveCatalog returns the current catalog, or ErrNoCatalog when it is empty.
func (idx *Indexer) liveCatalog() (*search.Catalog, error) {
	cat := idx.Catalog()
	if cat.Len() == 0 {
		return nil, ErrNoCatalog
	}
	return cat, nil
}

// resolveThreshold applies a per-call override of the configured threshold.
func (idx *Indexer) resolveThreshold(override *float64) (float64, error) {
	if override == nil {
		return idx.matcher.Threshold(), nil
	}
	if t := *override; t < 0 || t > search.MaxScore {
		return 0, fmt.Errorf("threshold must be between 0 and %v, got %v", search.MaxScore, t)
	}
	return *override, nil
}

// MatchLines prices every line against the current catalog.
// A nil threshold uses the configured one. If ctx is cancelled, the report
// holds the lines finished so far and the context error is returned with it.
func (idx *Indexer) MatchLines(ctx context.Context, lines []domain.QueryLine, threshold *float64) (*MatchReport, error) {
	cat, err := idx.liveCatalog()
	if err != nil {
		return nil, err
	}
	t, err := idx.resolveThreshold(threshold)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	batch, err := idx.matcher.MatchAll(ctx, lines, cat, t)

	idx.logger.Info("lines matched",
		"run_id", runID,
		"lines", len(lines),
		"matched", batch.Summary.MatchedItems,
		"unmatched", batch.Summary.UnmatchedItems,
		"total_cost", batch.Summary.TotalCost,
		"threshold", t,
		"elapsed", time.Since(start),
	)

	report := &MatchReport{
		RunID:     runID,
		Threshold: t,
		Results:   batch.Results,
		Summary:   batch.Summary,
	}
	if err != nil {
		idx.logger.Warn("match run interrupted", "run_id", runID, "done", len(batch.Results), "error", err)
		return report, err
	}
	return report, nil
}

// MatchText splits a plain-text document into lines and matches them.
func (idx *Indexer) MatchText(ctx context.Context, content string, threshold *float64) (*MatchReport, error) {
	lines := idx.parser.ParseQueries(content)
	if len(lines) == 0 {
		return nil, errors.New("no query lines found")
	}
	return idx.MatchLines(ctx, lines, threshold)
}

// MatchFile reads a plain-text bid document and matches its lines.
func (idx *Indexer) MatchFile(ctx context.Context, path string, threshold *float64) (*MatchReport, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	content, err := idx.reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return idx.MatchText(ctx, string(content), threshold)
}

// Search runs an interactive catalog search.
func (idx *Indexer) Search(query string) ([]search.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	cat, err := idx.liveCatalog()
	if err != nil {
		return nil, err
	}
	return idx.searcher.Search(query, cat), nil
}

// Explanation shows how a query line scores against one catalog item.
type Explanation struct {
	Item      domain.ReferenceItem `json:"item"`
	Method    domain.MatchMethod   `json:"method"`
	Breakdown search.Breakdown     `json:"breakdown"`
}

// Explain scores query against the item with the given code. Without a code
// it explains the line's best candidate, whether or not it clears the threshold.
func (idx *Indexer) Explain(query, code string) (*Explanation, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	cat, err := idx.liveCatalog()
	if err != nil {
		return nil, err
	}

	method := domain.MethodFuzzy
	var item domain.ReferenceItem
	if strings.TrimSpace(code) != "" {
		var ok bool
		if item, ok = cat.ByCode(code); !ok {
			return nil, fmt.Errorf("%q: %w", code, ErrUnknownCode)
		}
	} else {
		// A negative threshold accepts any candidate that scored at all.
		res := idx.matcher.MatchWithThreshold(domain.QueryLine{Text: query}, cat, -1)
		if res.Item == nil {
			return nil, errors.New("no candidate shares a word or code with the query")
		}
		item, method = *res.Item, res.Method
	}

	return &Explanation{
		Item:      item,
		Method:    method,
		Breakdown: idx.matcher.Scorer().Explain(query, item.Description),
	}, nil
}

// Assign prices a line with a hand-picked catalog item.
func (idx *Indexer) Assign(line domain.QueryLine, code string) (domain.MatchResult, error) {
	cat, err := idx.liveCatalog()
	if err != nil {
		return domain.MatchResult{}, err
	}
	item, ok := cat.ByCode(code)
	if !ok {
		return domain.MatchResult{}, fmt.Errorf("%q: %w", code, ErrUnknownCode)
	}

	res := idx.matcher.Assign(line, item)
	idx.logger.Info("item assigned", "code", item.Code, "result_id", res.ID, "total_price", res.TotalPrice)
	return res, nil
}
