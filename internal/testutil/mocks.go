// Package testutil provides shared test helpers and mock implementations.
// This avoids duplicating mock code across test files.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/cache"
	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/parser"
)

// ErrNotFound is returned by mocks when a resource doesn't exist.
var ErrNotFound = errors.New("not found")

// MockCache is a simple in-memory cache for testing.
// It separates memory and disk caches to test caching behavior.
type MockCache struct {
	Mem  map[string]*domain.CatalogSnapshot
	Disk map[string]*domain.CatalogSnapshot
}

// NewMockCache creates a new MockCache with initialized maps.
func NewMockCache() *MockCache {
	return &MockCache{
		Mem:  make(map[string]*domain.CatalogSnapshot),
		Disk: make(map[string]*domain.CatalogSnapshot),
	}
}

func (m *MockCache) Get(sourceID string) (*domain.CatalogSnapshot, error) {
	if snap, ok := m.Mem[sourceID]; ok {
		return snap, nil
	}
	return nil, cache.ErrNotFound
}

func (m *MockCache) Set(sourceID string, snap *domain.CatalogSnapshot) {
	m.Mem[sourceID] = snap
}

func (m *MockCache) LoadFromDisk(sourceID string) (*domain.CatalogSnapshot, error) {
	if snap, ok := m.Disk[sourceID]; ok {
		return snap, nil
	}
	return nil, cache.ErrNotFound
}

func (m *MockCache) SaveToDisk(snap *domain.CatalogSnapshot) error {
	m.Disk[snap.SourceID] = snap
	return nil
}

func (m *MockCache) Clear() error {
	clear(m.Mem)
	clear(m.Disk)
	return nil
}

// MockStore keeps items in memory with upsert-by-code semantics.
// Set Err to make every call fail.
type MockStore struct {
	mu    sync.Mutex
	Items []domain.ReferenceItem
	Err   error
}

func (m *MockStore) Upsert(_ context.Context, items []domain.ReferenceItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for _, it := range items {
		if it.Code == "" {
			continue
		}
		n++
		replaced := false
		for i := range m.Items {
			if m.Items[i].Code == it.Code {
				m.Items[i], replaced = it, true
				break
			}
		}
		if !replaced {
			m.Items = append(m.Items, it)
		}
	}
	return n, nil
}

func (m *MockStore) All(context.Context) ([]domain.ReferenceItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.ReferenceItem, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

func (m *MockStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Items), m.Err
}

func (m *MockStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Items = nil
	return nil
}

func (m *MockStore) Close() error { return nil }

// MockReader returns controlled file content for testing.
type MockReader struct {
	Files map[string]string // path -> content
}

// NewMockReader creates a MockReader with an initialized file map.
func NewMockReader() *MockReader {
	return &MockReader{Files: make(map[string]string)}
}

func (m *MockReader) ReadFile(path string) ([]byte, error) {
	if content, ok := m.Files[path]; ok {
		return []byte(content), nil
	}
	return nil, ErrNotFound
}

func (m *MockReader) HashFile(path string) (string, error) {
	if content, ok := m.Files[path]; ok {
		return "hash_" + content[:min(10, len(content))], nil
	}
	return "", ErrNotFound
}

// MockParser returns fixed catalog items for any content and counts calls.
// Useful for testing indexer caching without real parsing.
type MockParser struct {
	Items        []domain.ReferenceItem
	CatalogCalls int
}

func (m *MockParser) ParseCatalog(format parser.Format, content []byte) ([]domain.ReferenceItem, error) {
	m.CatalogCalls++
	out := make([]domain.ReferenceItem, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

// ParseQueries returns one query per non-blank line.
func (m *MockParser) ParseQueries(content string) []domain.QueryLine {
	var lines []domain.QueryLine
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, domain.QueryLine{Text: l})
		}
	}
	return lines
}

// MockFetcher serves fixed markdown pages.
type MockFetcher struct {
	Pages map[string]string // url -> markdown
	Calls int
}

func (m *MockFetcher) FetchAsMarkdown(_ context.Context, url string) (string, error) {
	m.Calls++
	if md, ok := m.Pages[url]; ok {
		return md, nil
	}
	return "", ErrNotFound
}

// MockClock returns a fixed time for reproducible tests.
type MockClock struct {
	Time time.Time
}

// NewMockClock creates a clock fixed at the given time.
// If t is zero, uses 2024-01-01 00:00:00 UTC.
func NewMockClock(t time.Time) MockClock {
	if t.IsZero() {
		t = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return MockClock{Time: t}
}

func (m MockClock) Now() time.Time { return m.Time }

// SampleItems is a small excavation catalog used across package tests.
func SampleItems() []domain.ReferenceItem {
	return []domain.ReferenceItem{
		{Code: "15.010.1001", Description: "Makine ile yumuşak toprak kazılması", Unit: "m3", UnitPrice: 25.50},
		{Code: "15.010.1002", Description: "Elle sert toprak kazılması", Unit: "m3", UnitPrice: 80},
		{Code: "15.150.1003", Description: "Beton dökülmesi (pompa ile)", Unit: "m3", UnitPrice: 120},
	}
}
