// Package main is the entry point for the mcp-poz-match server.
// It wires together all dependencies and starts the MCP server.
//
// This file is intentionally minimal - all business logic lives in internal/.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/cache"
	"github.com/bad33ndj3/mcp-poz-match/internal/config"
	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/fetcher"
	"github.com/bad33ndj3/mcp-poz-match/internal/indexer"
	mcphandlers "github.com/bad33ndj3/mcp-poz-match/internal/mcp"
	"github.com/bad33ndj3/mcp-poz-match/internal/parser"
	"github.com/bad33ndj3/mcp-poz-match/internal/search"
	"github.com/bad33ndj3/mcp-poz-match/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "mcp-poz-match"
	serverVersion = "v0.1.0"
)

// setupLogger creates an slog logger that writes to a debug file in the cache directory.
// File format: debug-YYYY-MM-DD.txt
func setupLogger(cacheDir string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create cache dir: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(cacheDir, fmt.Sprintf("debug-%s.txt", date))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler), file, nil
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cfg *config.Config, cacheDir, dbPath, catalogs *string, threshold *float64, candidates, workers *int) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cache-dir":
			// A database derived from the old cache dir follows the new one.
			if cfg.DBPath == config.DefaultDBPath(cfg.CacheDir) {
				cfg.DBPath = ""
			}
			cfg.CacheDir = *cacheDir
		case "db":
			cfg.DBPath = *dbPath
		case "catalog":
			cfg.Catalogs = strings.Split(*catalogs, ",")
		case "threshold":
			cfg.Threshold = *threshold
		case "candidates":
			cfg.Candidates = *candidates
		case "workers":
			cfg.Workers = *workers
		}
	})
	cfg.ApplyDefaults()
}

func main() {
	// IMPORTANT: MCP stdio servers must log to stderr only (for standard log package).
	log.SetOutput(os.Stderr)

	// --- 0. Parse flags ---
	configPath := flag.String("config", "", "Optional JSON config file")
	cacheDir := flag.String("cache-dir", config.DefaultCacheDir, "Directory for cache and log files")
	dbPath := flag.String("db", "", "SQLite catalog file (default: <cache-dir>/catalog.db)")
	catalogs := flag.String("catalog", "", "Comma-separated catalog files to import at startup")
	threshold := flag.Float64("threshold", domain.DefaultThreshold, "Acceptance threshold for bulk matching (0-100)")
	candidates := flag.Int("candidates", search.DefaultCandidateLimit, "Catalog items scored per query line")
	workers := flag.Int("workers", 0, "Batch matching goroutines (0: one per CPU)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(&cfg, cacheDir, dbPath, catalogs, threshold, candidates, workers)

	// --- 1. Setup file-based debug logger ---

	logger, logFile, err := setupLogger(cfg.CacheDir, cfg.Level())
	if err != nil {
		log.Printf("Warning: failed to setup file logger: %v", err)
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	} else {
		defer logFile.Close()
	}

	logger.Info("server starting",
		"name", serverName,
		"version", serverVersion,
		"cache_dir", cfg.CacheDir,
		"db", cfg.DBPath,
		"threshold", cfg.Threshold,
	)

	// --- 2. Create all dependencies ---

	// Cache: stores parsed catalog imports in memory and on disk
	fileCache, err := cache.NewFileCache(cfg.CacheDir)
	if err != nil {
		logger.Error("failed to create cache", "error", err)
		log.Fatalf("Failed to create cache: %v", err)
	}

	// Store: the merged catalog, persisted across restarts
	catalogStore, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer catalogStore.Close()

	scorer := search.NewScorer(cfg.ScoreConfig())
	matcher := search.NewMatcher(
		search.WithScorer(scorer),
		search.WithThreshold(cfg.Threshold),
		search.WithCandidateLimit(cfg.Candidates),
		search.WithWorkers(cfg.Workers),
	)
	searcher := search.NewSearcher(
		search.WithSearchScorer(scorer),
		search.WithSearchLimit(cfg.SearchLimit),
	)

	// --- 3. Wire up the indexer (orchestrator) ---

	idx := indexer.New(
		fileCache,
		catalogStore,
		parser.NewDocumentParser(),
		indexer.OSFileReader{},
		indexer.RealClock{},
		fetcher.NewHTTPFetcher(),
		indexer.WithLogger(logger),
		indexer.WithMatcher(matcher),
		indexer.WithSearcher(searcher),
	)

	ctx := context.Background()
	if _, err := idx.Restore(ctx); err != nil {
		logger.Error("failed to restore catalog", "error", err)
		log.Fatalf("Failed to restore catalog: %v", err)
	}
	for _, path := range cfg.Catalogs {
		if _, err := idx.Load(ctx, path); err != nil {
			logger.Warn("startup import failed", "path", path, "error", err)
		}
	}

	handlers := mcphandlers.NewHandlers(idx, logger)

	// --- 4. Create and configure the MCP server ---

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: "Load a priced poz catalog once with catalog_load (it is stored and survives restarts), then price bid lines with match_lines or match_file. Use search_catalog to browse, explain_match to see why a line scored as it did, and assign_item to correct a match by hand.",
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_load",
		Description: "Import a catalog file (JSON, CSV/TSV or markdown tables with code, description, unit, unit price) and merge it into the stored catalog by code.",
	}, handlers.CatalogLoad)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_load_url",
		Description: "Fetch a web page of price tables, convert it and import its items. Cached unless force is set.",
	}, handlers.CatalogLoadURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_status",
		Description: "Show catalog size, indexed words, the acceptance threshold and the imports of this session.",
	}, handlers.CatalogStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_clear",
		Description: "Delete every stored catalog item and cached import.",
	}, handlers.CatalogClear)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_lines",
		Description: "Match bid lines to catalog items: exact code first, then fuzzy description scoring above the threshold. Returns priced results and totals.",
	}, handlers.MatchLines)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_file",
		Description: "Match every line of a plain-text bid document against the catalog.",
	}, handlers.MatchFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_catalog",
		Description: "Search the catalog by description or (partial) code; results are ranked, filtered adaptively and deduplicated.",
	}, handlers.SearchCatalog)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_match",
		Description: "Show the scoring breakdown of a query line against one catalog item (or its best candidate).",
	}, handlers.ExplainMatch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "assign_item",
		Description: "Price a line with a hand-picked catalog item by code.",
	}, handlers.AssignItem)

	logger.Info("server ready, waiting for requests", "catalog_size", idx.Catalog().Len())

	// --- 5. Run the server ---

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("server error", "error", err)
		log.Fatal(err)
	}
}
