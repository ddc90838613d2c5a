// Package mcp provides MCP tool handlers for the poz matching server.
// These handlers parse MCP request arguments and delegate to the Indexer.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/indexer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoadArgs defines the arguments for the catalog_load tool.
type LoadArgs struct {
	Path string `json:"path" jsonschema_description:"Path to a catalog file: .json, .csv, .tsv or markdown tables (e.g. data/poz-2024.csv)"`
}

// LoadURLArgs defines the arguments for the catalog_load_url tool.
type LoadURLArgs struct {
	URL   string `json:"url" jsonschema_description:"URL of a web page with price tables (code, description, unit, unit price)"`
	Force bool   `json:"force,omitempty" jsonschema_description:"Force re-fetch even if cached (default: false)"`
}

// MatchLinesArgs defines the arguments for the match_lines tool.
type MatchLinesArgs struct {
	Lines     []domain.QueryLine `json:"lines,omitempty" jsonschema_description:"Query lines; text is required, code, unit and quantity are optional"`
	Text      string             `json:"text,omitempty" jsonschema_description:"Plain-text bid document, one work item per line (used when lines is empty)"`
	Threshold *float64           `json:"threshold,omitempty" jsonschema_description:"Acceptance threshold 0-100; a match must score above it (default from config, 40)"`
}

// MatchFileArgs defines the arguments for the match_file tool.
type MatchFileArgs struct {
	Path      string   `json:"path" jsonschema_description:"Path to a plain-text bid document, one work item per line"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema_description:"Acceptance threshold 0-100 (default from config, 40)"`
}

// SearchArgs defines the arguments for the search_catalog tool.
type SearchArgs struct {
	Query string `json:"query" jsonschema_description:"Search text or (partial) poz code (e.g. 'c30 beton' or '15.150')"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Max results to return (default 100)"`
}

// ExplainArgs defines the arguments for the explain_match tool.
type ExplainArgs struct {
	Query string `json:"query" jsonschema_description:"Query line text"`
	Code  string `json:"code,omitempty" jsonschema_description:"Catalog code to score against (default: the best candidate)"`
}

// AssignArgs defines the arguments for the assign_item tool.
type AssignArgs struct {
	Text     string  `json:"text" jsonschema_description:"Query line text"`
	Code     string  `json:"code" jsonschema_description:"Code of the catalog item to assign"`
	Unit     string  `json:"unit,omitempty" jsonschema_description:"Declared unit of the line"`
	Quantity float64 `json:"quantity,omitempty" jsonschema_description:"Quantity (default: read from the text, else 1)"`
}

// Handlers wraps the indexer and provides MCP tool handlers.
type Handlers struct {
	indexer *indexer.Indexer
	logger  *slog.Logger
}

// NewHandlers creates handlers with the given indexer and logger.
func NewHandlers(idx *indexer.Indexer, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{indexer: idx, logger: logger}
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// jsonResult renders v as indented JSON below an optional header line.
func jsonResult(header string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if header == "" {
		return textResult(string(data)), nil
	}
	return textResult(header + "\n\n" + string(data)), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

func describeLoad(r *indexer.LoadResult) string {
	verb := "Imported and cached."
	if r.FromCache {
		verb = "Imported from cache."
	}
	return fmt.Sprintf("%s\n\nsource_id: %s\nsource: %s\nitems: %d\nupserted: %d\ncatalog_size: %d\nimported_at: %s\n",
		verb, r.SourceID, r.Source, r.NumItems, r.Upserted, r.CatalogSize, r.ImportedAt.Format(time.RFC3339))
}

// CatalogLoad handles the catalog_load tool call.
// It imports a catalog file and merges it into the stored catalog by code.
func (h *Handlers) CatalogLoad(ctx context.Context, req *mcp.CallToolRequest, args LoadArgs) (*mcp.CallToolResult, any, error) {
	path := strings.TrimSpace(args.Path)
	if path == "" {
		h.logger.Error("catalog_load: path is required")
		return nil, nil, errors.New("path is required")
	}

	h.logger.Debug("catalog_load: loading file", "path", path)

	result, err := h.indexer.Load(ctx, path)
	if err != nil {
		h.logger.Error("catalog_load: failed to load", "path", path, "error", err)
		return nil, nil, err
	}

	h.logger.Info("catalog_load: success",
		"path", path,
		"items", result.NumItems,
		"catalog_size", result.CatalogSize,
		"from_cache", result.FromCache,
	)
	return textResult(describeLoad(result)), nil, nil
}

// CatalogLoadURL handles the catalog_load_url tool call.
// It fetches a published price list, converts its tables and imports them.
func (h *Handlers) CatalogLoadURL(ctx context.Context, req *mcp.CallToolRequest, args LoadURLArgs) (*mcp.CallToolResult, any, error) {
	url := strings.TrimSpace(args.URL)
	if url == "" {
		h.logger.Error("catalog_load_url: url is required")
		return nil, nil, errors.New("url is required")
	}

	h.logger.Debug("catalog_load_url: fetching", "url", url, "force", args.Force)

	result, err := h.indexer.LoadURL(ctx, url, args.Force)
	if err != nil {
		h.logger.Error("catalog_load_url: failed to load", "url", url, "error", err)
		return nil, nil, err
	}

	h.logger.Info("catalog_load_url: success",
		"url", url,
		"items", result.NumItems,
		"catalog_size", result.CatalogSize,
		"from_cache", result.FromCache,
	)
	return textResult(describeLoad(result)), nil, nil
}

// CatalogStatus handles the catalog_status tool call.
func (h *Handlers) CatalogStatus(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
	status := h.indexer.Status()
	h.logger.Debug("catalog_status: reported", "catalog_size", status.CatalogSize)

	if status.CatalogSize == 0 {
		return textResult("No catalog loaded. Use catalog_load or catalog_load_url first."), nil, nil
	}
	res, err := jsonResult("", status)
	return res, nil, err
}

// CatalogClear handles the catalog_clear tool call.
// It deletes every stored item and cached import.
func (h *Handlers) CatalogClear(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
	before := h.indexer.Status().CatalogSize
	if err := h.indexer.Clear(ctx); err != nil {
		h.logger.Error("catalog_clear: failed", "error", err)
		return nil, nil, err
	}
	h.logger.Info("catalog_clear: success", "removed", before)
	return textResult(fmt.Sprintf("Catalog cleared (%d items removed).", before)), nil, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Matching
// ─────────────────────────────────────────────────────────────────────────────

func reportHeader(r *indexer.MatchReport) string {
	s := r.Summary
	return fmt.Sprintf("Matched %d of %d lines (%d unmatched) at threshold %g. Total cost: %.2f",
		s.MatchedItems, s.TotalItems, s.UnmatchedItems, r.Threshold, s.TotalCost)
}

// MatchLines handles the match_lines tool call.
// It prices structured lines, or the lines of a plain-text document.
func (h *Handlers) MatchLines(ctx context.Context, req *mcp.CallToolRequest, args MatchLinesArgs) (*mcp.CallToolResult, any, error) {
	var (
		report *indexer.MatchReport
		err    error
	)
	switch {
	case len(args.Lines) > 0:
		h.logger.Debug("match_lines: matching lines", "count", len(args.Lines))
		report, err = h.indexer.MatchLines(ctx, args.Lines, args.Threshold)
	case strings.TrimSpace(args.Text) != "":
		h.logger.Debug("match_lines: matching text", "length", len(args.Text))
		report, err = h.indexer.MatchText(ctx, args.Text, args.Threshold)
	default:
		h.logger.Error("match_lines: lines or text is required")
		return nil, nil, errors.New("lines or text is required")
	}
	if err != nil {
		h.logger.Error("match_lines: failed", "error", err)
		return nil, nil, err
	}

	h.logger.Info("match_lines: success",
		"run_id", report.RunID,
		"lines", report.Summary.TotalItems,
		"matched", report.Summary.MatchedItems,
	)
	res, err := jsonResult(reportHeader(report), report)
	return res, nil, err
}

// MatchFile handles the match_file tool call.
func (h *Handlers) MatchFile(ctx context.Context, req *mcp.CallToolRequest, args MatchFileArgs) (*mcp.CallToolResult, any, error) {
	path := strings.TrimSpace(args.Path)
	if path == "" {
		h.logger.Error("match_file: path is required")
		return nil, nil, errors.New("path is required")
	}

	h.logger.Debug("match_file: matching file", "path", path)

	report, err := h.indexer.MatchFile(ctx, path, args.Threshold)
	if err != nil {
		h.logger.Error("match_file: failed", "path", path, "error", err)
		return nil, nil, err
	}

	h.logger.Info("match_file: success",
		"path", path,
		"run_id", report.RunID,
		"lines", report.Summary.TotalItems,
		"matched", report.Summary.MatchedItems,
	)
	res, err := jsonResult(reportHeader(report), report)
	return res, nil, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Interactive
// ─────────────────────────────────────────────────────────────────────────────

// SearchCatalog handles the search_catalog tool call.
// It ranks catalog items by code and description relevance.
func (h *Handlers) SearchCatalog(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		h.logger.Error("search_catalog: query is required")
		return nil, nil, errors.New("query is required")
	}

	hits, err := h.indexer.Search(query)
	if err != nil {
		h.logger.Error("search_catalog: failed", "query", query, "error", err)
		return nil, nil, err
	}
	total := len(hits)
	if args.Limit > 0 && args.Limit < len(hits) {
		hits = hits[:args.Limit]
	}

	h.logger.Info("search_catalog: success", "query", query, "hits", total)

	if len(hits) == 0 {
		return textResult(fmt.Sprintf("No catalog items match %q.", query)), nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d items for %q", total, query)
	if len(hits) < total {
		fmt.Fprintf(&sb, " (showing %d)", len(hits))
	}
	sb.WriteString("\n\n")
	for i, hit := range hits {
		fmt.Fprintf(&sb, "%d. %s  %s  [%s]  %.2f  (rank %.0f, %s)\n",
			i+1, hit.Item.Code, hit.Item.Description, hit.Item.Unit, hit.Item.UnitPrice, hit.Rank, hit.Kind)
	}
	return textResult(sb.String()), nil, nil
}

// ExplainMatch handles the explain_match tool call.
// It shows every scoring signal for a query against one catalog item.
func (h *Handlers) ExplainMatch(ctx context.Context, req *mcp.CallToolRequest, args ExplainArgs) (*mcp.CallToolResult, any, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		h.logger.Error("explain_match: query is required")
		return nil, nil, errors.New("query is required")
	}

	exp, err := h.indexer.Explain(query, args.Code)
	if err != nil {
		h.logger.Error("explain_match: failed", "query", query, "code", args.Code, "error", err)
		return nil, nil, err
	}

	h.logger.Info("explain_match: success", "code", exp.Item.Code, "score", exp.Breakdown.Score)

	header := fmt.Sprintf("%s %s scores %.2f", exp.Item.Code, exp.Item.Description, exp.Breakdown.Score)
	if exp.Breakdown.GateFailed() {
		header += fmt.Sprintf(" (missing numbers: %s)", strings.Join(exp.Breakdown.MissingNumbers, ", "))
	}
	res, err := jsonResult(header, exp)
	return res, nil, err
}

// AssignItem handles the assign_item tool call.
// It prices a line with a hand-picked catalog item.
func (h *Handlers) AssignItem(ctx context.Context, req *mcp.CallToolRequest, args AssignArgs) (*mcp.CallToolResult, any, error) {
	code := strings.TrimSpace(args.Code)
	if code == "" {
		h.logger.Error("assign_item: code is required")
		return nil, nil, errors.New("code is required")
	}
	if args.Quantity < 0 {
		return nil, nil, fmt.Errorf("quantity must not be negative, got %v", args.Quantity)
	}

	line := domain.QueryLine{Text: strings.TrimSpace(args.Text), Unit: args.Unit, Quantity: args.Quantity}
	result, err := h.indexer.Assign(line, code)
	if err != nil {
		h.logger.Error("assign_item: failed", "code", code, "error", err)
		return nil, nil, err
	}

	h.logger.Info("assign_item: success", "code", code, "total_price", result.TotalPrice)

	header := fmt.Sprintf("Assigned %s: %g x %.2f = %.2f",
		result.Item.Code, result.Quantity, result.Item.UnitPrice, result.TotalPrice)
	res, err := jsonResult(header, result)
	return res, nil, err
}
