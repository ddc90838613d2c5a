// Package cache keeps parsed catalog imports so an unchanged price list is
// not parsed twice. It supports in-memory caching (fast, but lost on
// restart) and disk persistence (survives restarts).
//
// The Cache interface allows us to swap implementations for testing.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// ErrNotFound is returned when a requested snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot not found")

// ErrVersionMismatch is returned when the cache version doesn't match.
var ErrVersionMismatch = errors.New("cache version mismatch (re-import the catalog)")

const snapshotSuffix = ".snapshot.json"

// Cache defines how import snapshots are stored and retrieved.
type Cache interface {
	// Get retrieves a snapshot from memory (fast path).
	// Returns ErrNotFound if not in memory.
	Get(sourceID string) (*domain.CatalogSnapshot, error)

	// Set stores a snapshot in memory.
	Set(sourceID string, snap *domain.CatalogSnapshot)

	// LoadFromDisk retrieves a snapshot from the cache directory.
	// Returns ErrNotFound if no cache file exists.
	// Returns ErrVersionMismatch if the file is from an old version.
	LoadFromDisk(sourceID string) (*domain.CatalogSnapshot, error)

	// SaveToDisk persists a snapshot for future sessions.
	SaveToDisk(snap *domain.CatalogSnapshot) error

	// Clear drops every snapshot from memory and disk.
	Clear() error
}

// FileCache implements Cache using JSON files on disk.
// It maintains an in-memory map for fast repeated access within a session.
type FileCache struct {
	cacheDir string
	mem      map[string]*domain.CatalogSnapshot
	mu       sync.RWMutex
}

// NewFileCache creates a new FileCache that stores files in the given directory.
// The directory is created if it doesn't exist.
func NewFileCache(cacheDir string) (*FileCache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{
		cacheDir: cacheDir,
		mem:      make(map[string]*domain.CatalogSnapshot),
	}, nil
}

// Get retrieves a snapshot from the in-memory cache.
func (c *FileCache) Get(sourceID string) (*domain.CatalogSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.mem[sourceID]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Set stores a snapshot in the in-memory cache.
func (c *FileCache) Set(sourceID string, snap *domain.CatalogSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[sourceID] = snap
}

func (c *FileCache) snapshotPath(sourceID string) string {
	return filepath.Join(c.cacheDir, sourceID+snapshotSuffix)
}

// LoadFromDisk loads a snapshot from the cache directory.
func (c *FileCache) LoadFromDisk(sourceID string) (*domain.CatalogSnapshot, error) {
	data, err := os.ReadFile(c.snapshotPath(sourceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var snap domain.CatalogSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}

	if snap.Version != domain.CacheVersion {
		return nil, ErrVersionMismatch
	}
	return &snap, nil
}

// SaveToDisk saves a snapshot to the cache directory as a JSON file.
func (c *FileCache) SaveToDisk(snap *domain.CatalogSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(c.snapshotPath(snap.SourceID), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Clear removes every snapshot file and empties the memory cache.
// Other files in the directory, such as debug logs, are left alone.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.mem)

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("list cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove snapshot: %w", err)
		}
	}
	return nil
}
