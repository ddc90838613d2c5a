package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/indexer"
	"github.com/bad33ndj3/mcp-poz-match/internal/testutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func createTestHandlers() (*Handlers, *testutil.MockReader) {
	reader := testutil.NewMockReader()
	reader.Files["data/poz.csv"] = "code;description;unit;price"
	reader.Files["teklif.txt"] = "15.010.1002 elle kazı 3 m3\nhiç ilgisi olmayan satır"

	idx := indexer.New(
		testutil.NewMockCache(),
		&testutil.MockStore{},
		&testutil.MockParser{Items: testutil.SampleItems()},
		reader,
		testutil.NewMockClock(time.Time{}),
		&testutil.MockFetcher{Pages: map[string]string{"https://example.com/fiyat": "| a | b |"}},
	)
	return NewHandlers(idx, nil), reader
}

func loadedHandlers(t *testing.T) *Handlers {
	t.Helper()
	h, _ := createTestHandlers()
	if _, _, err := h.CatalogLoad(context.Background(), nil, LoadArgs{Path: "data/poz.csv"}); err != nil {
		t.Fatalf("CatalogLoad: %v", err)
	}
	return h
}

// getTextFromResult extracts text content from MCP result
func getTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func ptr(v float64) *float64 { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

func TestCatalogLoad_ReportsImport(t *testing.T) {
	h, _ := createTestHandlers()

	result, _, err := h.CatalogLoad(context.Background(), nil, LoadArgs{Path: "data/poz.csv"})
	if err != nil {
		t.Fatalf("CatalogLoad: %v", err)
	}
	text := getTextFromResult(result)
	if !strings.Contains(text, "source_id:") || !strings.Contains(text, "catalog_size: 3") {
		t.Errorf("unexpected response: %s", text)
	}

	result, _, err = h.CatalogLoad(context.Background(), nil, LoadArgs{Path: "data/poz.csv"})
	if err != nil {
		t.Fatalf("CatalogLoad again: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "from cache") {
		t.Errorf("second load should come from cache: %s", text)
	}
}

func TestCatalogLoad_Errors(t *testing.T) {
	h, _ := createTestHandlers()
	ctx := context.Background()

	if _, _, err := h.CatalogLoad(ctx, nil, LoadArgs{Path: "  "}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, _, err := h.CatalogLoad(ctx, nil, LoadArgs{Path: "data/poz.xlsx"}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, _, err := h.CatalogLoad(ctx, nil, LoadArgs{Path: "data/yok.csv"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCatalogLoadURL(t *testing.T) {
	h, _ := createTestHandlers()
	ctx := context.Background()

	result, _, err := h.CatalogLoadURL(ctx, nil, LoadURLArgs{URL: "https://example.com/fiyat"})
	if err != nil {
		t.Fatalf("CatalogLoadURL: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "source: https://example.com/fiyat") {
		t.Errorf("unexpected response: %s", text)
	}

	if _, _, err := h.CatalogLoadURL(ctx, nil, LoadURLArgs{}); err == nil {
		t.Error("expected error for empty url")
	}
	if _, _, err := h.CatalogLoadURL(ctx, nil, LoadURLArgs{URL: "https://example.com/yok"}); err == nil {
		t.Error("expected error for a failed fetch")
	}
}

func TestCatalogStatusAndClear(t *testing.T) {
	h, _ := createTestHandlers()
	ctx := context.Background()

	result, _, err := h.CatalogStatus(ctx, nil, struct{}{})
	if err != nil {
		t.Fatalf("CatalogStatus: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "No catalog loaded") {
		t.Errorf("empty status = %s", text)
	}

	if _, _, err := h.CatalogLoad(ctx, nil, LoadArgs{Path: "data/poz.csv"}); err != nil {
		t.Fatalf("CatalogLoad: %v", err)
	}
	result, _, _ = h.CatalogStatus(ctx, nil, struct{}{})
	if text := getTextFromResult(result); !strings.Contains(text, `"catalog_size": 3`) {
		t.Errorf("status = %s", text)
	}

	result, _, err = h.CatalogClear(ctx, nil, struct{}{})
	if err != nil {
		t.Fatalf("CatalogClear: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "3 items removed") {
		t.Errorf("clear = %s", text)
	}
	if _, _, err := h.SearchCatalog(ctx, nil, SearchArgs{Query: "beton"}); err == nil {
		t.Error("search after clear should report a missing catalog")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Matching
// ─────────────────────────────────────────────────────────────────────────────

func TestMatchLines_StructuredLines(t *testing.T) {
	h := loadedHandlers(t)

	result, _, err := h.MatchLines(context.Background(), nil, MatchLinesArgs{
		Lines: []domain.QueryLine{
			{Text: "kazı işleri", Code: "15.150.1003", Quantity: 2},
			{Text: "hiç ilgisi olmayan satır"},
		},
	})
	if err != nil {
		t.Fatalf("MatchLines: %v", err)
	}

	text := getTextFromResult(result)
	if !strings.HasPrefix(text, "Matched 1 of 2 lines (1 unmatched) at threshold 40. Total cost: 240.00") {
		t.Errorf("unexpected header: %s", text)
	}
	if !strings.Contains(text, `"method": "code"`) || !strings.Contains(text, `"method": "none"`) {
		t.Errorf("expected one code match and one rejection: %s", text)
	}
}

func TestMatchLines_Text(t *testing.T) {
	h := loadedHandlers(t)

	result, _, err := h.MatchLines(context.Background(), nil, MatchLinesArgs{
		Text: "15.010.1002 elle kazı\n\nhiç ilgisi olmayan satır\n",
	})
	if err != nil {
		t.Fatalf("MatchLines: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "Matched 1 of 2 lines") {
		t.Errorf("unexpected response: %s", text)
	}
}

func TestMatchLines_Errors(t *testing.T) {
	ctx := context.Background()

	h, _ := createTestHandlers()
	if _, _, err := h.MatchLines(ctx, nil, MatchLinesArgs{Text: "beton dökülmesi"}); err == nil {
		t.Error("expected error without a catalog")
	}

	h = loadedHandlers(t)
	if _, _, err := h.MatchLines(ctx, nil, MatchLinesArgs{}); err == nil {
		t.Error("expected error without lines or text")
	}
	if _, _, err := h.MatchLines(ctx, nil, MatchLinesArgs{Text: "beton", Threshold: ptr(120)}); err == nil {
		t.Error("expected error for a threshold above 100")
	}
}

func TestMatchFile(t *testing.T) {
	h := loadedHandlers(t)
	ctx := context.Background()

	result, _, err := h.MatchFile(ctx, nil, MatchFileArgs{Path: "teklif.txt", Threshold: ptr(0)})
	if err != nil {
		t.Fatalf("MatchFile: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "at threshold 0") {
		t.Errorf("unexpected response: %s", text)
	}

	if _, _, err := h.MatchFile(ctx, nil, MatchFileArgs{}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, _, err := h.MatchFile(ctx, nil, MatchFileArgs{Path: "yok.txt"}); err == nil {
		t.Error("expected error for missing file")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Interactive
// ─────────────────────────────────────────────────────────────────────────────

func TestSearchCatalog(t *testing.T) {
	h := loadedHandlers(t)
	ctx := context.Background()

	result, _, err := h.SearchCatalog(ctx, nil, SearchArgs{Query: "15.150.1003"})
	if err != nil {
		t.Fatalf("SearchCatalog: %v", err)
	}
	text := getTextFromResult(result)
	if !strings.Contains(text, "Found 1 items") || !strings.Contains(text, "Beton dökülmesi") {
		t.Errorf("unexpected response: %s", text)
	}

	result, _, err = h.SearchCatalog(ctx, nil, SearchArgs{Query: "15.010", Limit: 1})
	if err != nil {
		t.Fatalf("SearchCatalog with limit: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "Found 2 items") || !strings.Contains(text, "(showing 1)") {
		t.Errorf("limited response: %s", text)
	}

	result, _, _ = h.SearchCatalog(ctx, nil, SearchArgs{Query: "zzzz qqqq"})
	if text := getTextFromResult(result); !strings.Contains(text, "No catalog items match") {
		t.Errorf("empty response: %s", text)
	}

	if _, _, err := h.SearchCatalog(ctx, nil, SearchArgs{}); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestExplainMatch(t *testing.T) {
	h := loadedHandlers(t)
	ctx := context.Background()

	result, _, err := h.ExplainMatch(ctx, nil, ExplainArgs{Query: "Makine ile yumuşak toprak kazılması yapılması"})
	if err != nil {
		t.Fatalf("ExplainMatch: %v", err)
	}
	if text := getTextFromResult(result); !strings.HasPrefix(text, "15.010.1001 Makine ile yumuşak toprak kazılması scores 95.00") {
		t.Errorf("unexpected response: %s", text)
	}

	result, _, err = h.ExplainMatch(ctx, nil, ExplainArgs{Query: "Ø8 demir 15.150", Code: "15.150.1003"})
	if err != nil {
		t.Fatalf("ExplainMatch with code: %v", err)
	}
	if text := getTextFromResult(result); !strings.Contains(text, "missing numbers") {
		t.Errorf("expected the numeric gate to be reported: %s", text)
	}

	if _, _, err := h.ExplainMatch(ctx, nil, ExplainArgs{Query: "kazı", Code: "99.999"}); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestAssignItem(t *testing.T) {
	h := loadedHandlers(t)
	ctx := context.Background()

	result, _, err := h.AssignItem(ctx, nil, AssignArgs{Text: "kazı", Code: "15.010.1002", Quantity: 2})
	if err != nil {
		t.Fatalf("AssignItem: %v", err)
	}
	text := getTextFromResult(result)
	if !strings.HasPrefix(text, "Assigned 15.010.1002: 2 x 80.00 = 160.00") || !strings.Contains(text, `"method": "manual"`) {
		t.Errorf("unexpected response: %s", text)
	}

	tests := []struct {
		name string
		args AssignArgs
	}{
		{"empty code", AssignArgs{Text: "kazı"}},
		{"unknown code", AssignArgs{Text: "kazı", Code: "99.999"}},
		{"negative quantity", AssignArgs{Text: "kazı", Code: "15.010.1002", Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := h.AssignItem(ctx, nil, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}
