// Package config loads server settings from an optional JSON file.
// Command-line flags override file values in main.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"
	"github.com/bad33ndj3/mcp-poz-match/internal/search"
)

const (
	DefaultCacheDir = ".mcp-poz-cache"
	dbFileName      = "catalog.db"
)

// Config holds every tunable of the server.
type Config struct {
	CacheDir string `json:"cacheDir"`

	// DBPath is the SQLite catalog file (default: <cacheDir>/catalog.db).
	DBPath string `json:"dbPath"`

	// Catalogs are imported at startup, after the stored catalog is restored.
	Catalogs []string `json:"catalogs"`

	// Threshold is the bulk matching cutoff in [0, 100]; a fuzzy match must
	// score strictly above it.
	Threshold float64 `json:"threshold"`

	Candidates  int `json:"candidates"`  // items scored per line (default: 50)
	Workers     int `json:"workers"`     // batch matching goroutines (0: GOMAXPROCS)
	SearchLimit int `json:"searchLimit"` // interactive search hits (default: 100)

	// ImportantWeight boosts the word before an action verb ("boru döşenmesi").
	ImportantWeight float64 `json:"importantWeight"`

	LogLevel string `json:"logLevel"` // debug, info, warn, error (default: debug)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CacheDir:    DefaultCacheDir,
		Threshold:   domain.DefaultThreshold,
		Candidates:  search.DefaultCandidateLimit,
		SearchLimit: search.DefaultSearchLimit,
		LogLevel:    "debug",
	}
}

// Load reads the config file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		cfg.ApplyDefaults()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills empty fields and clamps out-of-range values.
func (c *Config) ApplyDefaults() {
	c.CacheDir = strings.TrimSpace(c.CacheDir)
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	c.DBPath = strings.TrimSpace(c.DBPath)
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath(c.CacheDir)
	}

	if c.Threshold < 0 {
		c.Threshold = 0
	}
	if c.Threshold > search.MaxScore {
		c.Threshold = search.MaxScore
	}
	if c.Candidates <= 0 {
		c.Candidates = search.DefaultCandidateLimit
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = search.DefaultSearchLimit
	}
	if c.ImportantWeight < 0 {
		c.ImportantWeight = 0
	}

	catalogs := c.Catalogs[:0]
	for _, p := range c.Catalogs {
		if p = strings.TrimSpace(p); p != "" {
			catalogs = append(catalogs, p)
		}
	}
	c.Catalogs = catalogs

	if _, err := parseLevel(c.LogLevel); err != nil {
		c.LogLevel = "debug"
	}
}

// DefaultDBPath returns the catalog database location inside cacheDir.
func DefaultDBPath(cacheDir string) string {
	return filepath.Join(cacheDir, dbFileName)
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelDebug
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.TrimSpace(s)))
	return l, err
}

// ScoreConfig returns the scoring constants with this config's overrides.
func (c Config) ScoreConfig() search.ScoreConfig {
	sc := search.DefaultScoreConfig()
	sc.ImportantWeight = c.ImportantWeight
	return sc
}
