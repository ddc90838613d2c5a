package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
)

// TestFileCache_SetGet verifies in-memory round-trip storage.
func TestFileCache_SetGet(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	snap := &domain.CatalogSnapshot{
		SourceID: "src123",
		Source:   "data/poz.json",
		NumItems: 5,
		Version:  domain.CacheVersion,
	}

	if _, err := cache.Get("src123"); err != ErrNotFound {
		t.Errorf("Get before Set: expected ErrNotFound, got %v", err)
	}

	cache.Set("src123", snap)
	got, err := cache.Get("src123")
	if err != nil {
		t.Fatalf("Get after Set: %v", err)
	}
	if got.SourceID != snap.SourceID || got.Source != snap.Source {
		t.Errorf("Get returned wrong snapshot: got %+v, want %+v", got, snap)
	}
}

// TestFileCache_DiskRoundTrip verifies saving to and loading from disk.
func TestFileCache_DiskRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewFileCache(tmpDir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	snap := &domain.CatalogSnapshot{
		SourceID:   "persist123",
		Source:     "data/poz.csv",
		FileHash:   "abc123hash",
		ImportedAt: time.Now().Truncate(time.Second),
		Items: []domain.ReferenceItem{
			{Code: "15.010.1001", Description: "Makine ile kazı", Unit: "m3", UnitPrice: 25.5},
		},
		NumItems: 1,
		Version:  domain.CacheVersion,
	}

	if err := cache.SaveToDisk(snap); err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "persist123.snapshot.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Errorf("Cache file not created at %s", expectedPath)
	}

	loaded, err := cache.LoadFromDisk("persist123")
	if err != nil {
		t.Fatalf("LoadFromDisk: %v", err)
	}
	if loaded.FileHash != snap.FileHash || loaded.Source != snap.Source {
		t.Errorf("loaded %+v, want %+v", loaded, snap)
	}
	if len(loaded.Items) != 1 || loaded.Items[0] != snap.Items[0] {
		t.Errorf("Items mismatch: got %+v", loaded.Items)
	}
	if !loaded.ImportedAt.Equal(snap.ImportedAt) {
		t.Errorf("ImportedAt = %v, want %v", loaded.ImportedAt, snap.ImportedAt)
	}
}

// TestFileCache_LoadNotFound verifies behavior when cache file doesn't exist.
func TestFileCache_LoadNotFound(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, err := cache.LoadFromDisk("nonexistent"); err != ErrNotFound {
		t.Errorf("LoadFromDisk: expected ErrNotFound, got %v", err)
	}
}

// TestFileCache_VersionMismatch verifies old snapshots are rejected.
func TestFileCache_VersionMismatch(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	snap := &domain.CatalogSnapshot{
		SourceID: "oldversion",
		Version:  domain.CacheVersion + 999,
	}
	if err := cache.SaveToDisk(snap); err != nil {
		t.Fatalf("SaveToDisk: %v", err)
	}

	if _, err := cache.LoadFromDisk("oldversion"); err != ErrVersionMismatch {
		t.Errorf("LoadFromDisk: expected ErrVersionMismatch, got %v", err)
	}
}

// TestFileCache_Clear verifies snapshots are dropped but other files are kept.
func TestFileCache_Clear(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewFileCache(tmpDir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	snap := &domain.CatalogSnapshot{SourceID: "gone", Version: domain.CacheVersion}
	cache.Set("gone", snap)
	if err := cache.SaveToDisk(snap); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(tmpDir, "debug-2024-01-01.txt")
	if err := os.WriteFile(logPath, []byte("log"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if _, err := cache.Get("gone"); err != ErrNotFound {
		t.Errorf("Get after Clear: %v", err)
	}
	if _, err := cache.LoadFromDisk("gone"); err != ErrNotFound {
		t.Errorf("LoadFromDisk after Clear: %v", err)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("debug log removed: %v", err)
	}
}
