// Package indexer orchestrates catalog imports and matching.
// It ties together the cache, store, parser, fetcher and search components.
// Dependency injection via interfaces makes it fully testable.
//
// The live catalog is immutable and swapped atomically after every import,
// so matching and searching never block on a load in progress.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/cache"
	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/fetcher"
	"github.com/bad33ndj3/mcp-poz-match/internal/parser"
	"github.com/bad33ndj3/mcp-poz-match/internal/search"
	"github.com/bad33ndj3/mcp-poz-match/internal/store"
)

// ErrNoCatalog is returned when matching or searching an empty catalog.
var ErrNoCatalog = errors.New("no catalog loaded (call catalog_load first)")

// ErrUnknownCode is returned when a code is not in the catalog.
var ErrUnknownCode = errors.New("code not found in catalog")

// ErrNoItems is returned when an import source holds no usable items.
var ErrNoItems = errors.New("no catalog items found")

// FileReader abstracts file system access for testability.
// In tests, you can inject a mock that returns controlled content.
type FileReader interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// HashFile returns a hash of the file's contents.
	// Used to detect when a price list has changed and needs re-parsing.
	HashFile(path string) (string, error)
}

// Clock abstracts time access for reproducible tests.
type Clock interface {
	Now() time.Time
}

// Indexer orchestrates loading, persisting and matching against the catalog.
// It's the main entry point for catalog operations.
type Indexer struct {
	cache    cache.Cache
	store    store.Store
	parser   parser.Parser
	reader   FileReader
	clock    Clock
	fetcher  fetcher.Fetcher
	matcher  *search.Matcher
	searcher *search.Searcher
	logger   *slog.Logger

	catalog atomic.Pointer[search.Catalog]

	// mu serializes writers (imports, clears). Readers use the catalog pointer.
	mu       sync.Mutex
	sources  []SourceInfo
	loadedAt time.Time
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMatcher replaces the default line matcher.
func WithMatcher(m *search.Matcher) Option {
	return func(idx *Indexer) { idx.matcher = m }
}

// WithSearcher replaces the default interactive searcher.
func WithSearcher(s *search.Searcher) Option {
	return func(idx *Indexer) { idx.searcher = s }
}

// New creates an Indexer with all its dependencies injected.
// The catalog starts empty; call Restore to load the persisted one.
func New(c cache.Cache, st store.Store, p parser.Parser, r FileReader, clk Clock, f fetcher.Fetcher, opts ...Option) *Indexer {
	idx := &Indexer{
		cache:    c,
		store:    st,
		parser:   p,
		reader:   r,
		clock:    clk,
		fetcher:  f,
		matcher:  search.NewMatcher(),
		searcher: search.NewSearcher(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.catalog.Store(search.NewCatalog(nil))
	return idx
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// SourceInfo describes one import applied to the catalog in this session.
type SourceInfo struct {
	SourceID   string    `json:"source_id"`
	Source     string    `json:"source"`
	NumItems   int       `json:"num_items"`
	ImportedAt time.Time `json:"imported_at"`
}

// LoadResult contains information about an import.
type LoadResult struct {
	SourceID    string
	Source      string
	NumItems    int // items found in the source
	Upserted    int // items written to the store
	CatalogSize int // items in the catalog after the import
	FromCache   bool
	ImportedAt  time.Time
}

// Catalog returns the current catalog snapshot. It is never nil.
func (idx *Indexer) Catalog() *search.Catalog {
	return idx.catalog.Load()
}

// Restore rebuilds the catalog from the store, e.g. at startup.
// Returns the number of items loaded.
func (idx *Indexer) Restore(ctx context.Context) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n, err := idx.rebuild(ctx)
	if err != nil {
		return 0, err
	}
	idx.logger.Info("catalog restored", "items", n)
	return n, nil
}

// rebuild reads every stored item and swaps in a new catalog.
// Callers hold idx.mu.
func (idx *Indexer) rebuild(ctx context.Context) (int, error) {
	items, err := idx.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}

	start := time.Now()
	cat := search.NewCatalog(items)
	idx.catalog.Store(cat)
	idx.loadedAt = idx.clock.Now()

	idx.logger.Debug("catalog rebuilt",
		"items", cat.Len(),
		"words", cat.Index().Words(),
		"elapsed", time.Since(start),
	)
	return cat.Len(), nil
}

// Load imports a catalog file (JSON, CSV or markdown tables) and merges it
// into the catalog by code. An unchanged file is not parsed again.
func (idx *Indexer) Load(ctx context.Context, path string) (*LoadResult, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	format, err := parser.FormatForPath(path)
	if err != nil {
		return nil, err
	}

	sourceID := parser.SourceIDForPath(path)

	content, err := idx.reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	fileHash, err := idx.reader.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}

	snap, fromCache := idx.cachedSnapshot(sourceID, path, fileHash)
	if snap == nil {
		items, err := idx.parser.ParseCatalog(format, content)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		snap, err = idx.saveSnapshot(sourceID, path, fileHash, items)
		if err != nil {
			return nil, err
		}
	}

	return idx.apply(ctx, snap, fromCache)
}

// LoadURL imports the price tables of a web page. A page imported before
// is taken from the cache unless force is set.
func (idx *Indexer) LoadURL(ctx context.Context, url string, force bool) (*LoadResult, error) {
	if url == "" {
		return nil, errors.New("url is required")
	}
	sourceID := parser.SourceIDForURL(url)

	if !force {
		if snap, ok := idx.cachedSnapshot(sourceID, url, ""); ok {
			return idx.apply(ctx, snap, true)
		}
	}

	markdown, err := idx.fetcher.FetchAsMarkdown(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	items, err := idx.parser.ParseCatalog(parser.FormatMarkdown, []byte(markdown))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	snap, err := idx.saveSnapshot(sourceID, url, hashString(markdown), items)
	if err != nil {
		return nil, err
	}
	return idx.apply(ctx, snap, false)
}

// cachedSnapshot returns a cached import of source, checking memory then disk.
// A non-empty hash must match the cached file hash.
func (idx *Indexer) cachedSnapshot(sourceID, source, hash string) (*domain.CatalogSnapshot, bool) {
	valid := func(s *domain.CatalogSnapshot) bool {
		return s.Source == source && (hash == "" || s.FileHash == hash)
	}

	if snap, err := idx.cache.Get(sourceID); err == nil && valid(snap) {
		return snap, true
	}

	snap, err := idx.cache.LoadFromDisk(sourceID)
	switch {
	case err == nil && valid(snap):
		idx.cache.Set(sourceID, snap)
		return snap, true
	case err != nil && !errors.Is(err, cache.ErrNotFound):
		idx.logger.Warn("ignoring cached snapshot", "source", source, "error", err)
	}
	return nil, false
}

func (idx *Indexer) saveSnapshot(sourceID, source, hash string, items []domain.ReferenceItem) (*domain.CatalogSnapshot, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoItems)
	}
	snap := &domain.CatalogSnapshot{
		SourceID:   sourceID,
		Source:     source,
		FileHash:   hash,
		ImportedAt: idx.clock.Now(),
		Items:      items,
		NumItems:   len(items),
		Version:    domain.CacheVersion,
	}

	idx.cache.Set(sourceID, snap)
	if err := idx.cache.SaveToDisk(snap); err != nil {
		return nil, fmt.Errorf("save cache: %w", err)
	}
	return snap, nil
}

// apply merges a snapshot into the store and swaps in the rebuilt catalog.
func (idx *Indexer) apply(ctx context.Context, snap *domain.CatalogSnapshot, fromCache bool) (*LoadResult, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n, err := idx.store.Upsert(ctx, snap.Items)
	if err != nil {
		return nil, fmt.Errorf("store items: %w", err)
	}
	size, err := idx.rebuild(ctx)
	if err != nil {
		return nil, err
	}

	idx.recordSource(SourceInfo{
		SourceID:   snap.SourceID,
		Source:     snap.Source,
		NumItems:   snap.NumItems,
		ImportedAt: snap.ImportedAt,
	})

	idx.logger.Info("catalog imported",
		"source", snap.Source,
		"items", snap.NumItems,
		"upserted", n,
		"catalog_size", size,
		"from_cache", fromCache,
	)

	return &LoadResult{
		SourceID:    snap.SourceID,
		Source:      snap.Source,
		NumItems:    snap.NumItems,
		Upserted:    n,
		CatalogSize: size,
		FromCache:   fromCache,
		ImportedAt:  snap.ImportedAt,
	}, nil
}

// recordSource replaces an earlier entry for the same source.
// Callers hold idx.mu.
func (idx *Indexer) recordSource(info SourceInfo) {
	for i := range idx.sources {
		if idx.sources[i].SourceID == info.SourceID {
			idx.sources[i] = info
			return
		}
	}
	idx.sources = append(idx.sources, info)
}

// Clear empties the store and the snapshot cache and swaps in an empty catalog.
func (idx *Indexer) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if err := idx.cache.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	idx.catalog.Store(search.NewCatalog(nil))
	idx.sources = nil
	idx.loadedAt = idx.clock.Now()

	idx.logger.Info("catalog cleared")
	return nil
}

// Status describes the live catalog.
type Status struct {
	CatalogSize  int          `json:"catalog_size"`
	IndexedWords int          `json:"indexed_words"`
	Threshold    float64      `json:"threshold"`
	LoadedAt     time.Time    `json:"loaded_at"`
	Sources      []SourceInfo `json:"sources"`
}

// Status returns the catalog size, index size and the imports of this session.
func (idx *Indexer) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cat := idx.Catalog()
	sources := make([]SourceInfo, len(idx.sources))
	copy(sources, idx.sources)
	return Status{
		CatalogSize:  cat.Len(),
		IndexedWords: cat.Index().Words(),
		Threshold:    idx.matcher.Threshold(),
		LoadedAt:     idx.loadedAt,
		Sources:      sources,
	}
}

// OSFileReader is the production implementation using the real filesystem.
type OSFileReader struct{}

// ReadFile reads a file from the real filesystem.
func (OSFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// HashFile computes SHA256 of a file's contents.
func (OSFileReader) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RealClock uses the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
