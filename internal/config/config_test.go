package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "yok.json")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg.Threshold != 40 || cfg.Candidates != 50 || cfg.SearchLimit != 100 {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
		if cfg.DBPath != filepath.Join(DefaultCacheDir, "catalog.db") {
			t.Errorf("DBPath = %q", cfg.DBPath)
		}
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"cacheDir": "/tmp/poz",
		"threshold": 0,
		"workers": 4,
		"catalogs": ["a.json", "  ", "b.csv"],
		"importantWeight": 1.5,
		"logLevel": "warn"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Threshold != 0 {
		t.Errorf("explicit threshold 0 replaced: %v", cfg.Threshold)
	}
	if cfg.DBPath != filepath.Join("/tmp/poz", "catalog.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Workers != 4 || cfg.Candidates != 50 {
		t.Errorf("workers=%d candidates=%d", cfg.Workers, cfg.Candidates)
	}
	if len(cfg.Catalogs) != 2 || cfg.Catalogs[1] != "b.csv" {
		t.Errorf("Catalogs = %q", cfg.Catalogs)
	}
	if cfg.Level() != slog.LevelWarn {
		t.Errorf("Level = %v, want WARN", cfg.Level())
	}
	if cfg.ScoreConfig().ImportantWeight != 1.5 {
		t.Errorf("ImportantWeight not applied")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	if _, err := Load(writeConfig(t, `{"threshold": `)); err == nil {
		t.Error("expected a decode error")
	}
}

func TestApplyDefaults_Clamps(t *testing.T) {
	cfg := Config{Threshold: 250, Candidates: -1, Workers: -3, ImportantWeight: -2, LogLevel: "loud"}
	cfg.ApplyDefaults()

	if cfg.Threshold != 100 || cfg.Candidates != 50 || cfg.Workers != 0 || cfg.ImportantWeight != 0 {
		t.Errorf("ApplyDefaults = %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.Level() != slog.LevelDebug {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}

	cfg = Config{Threshold: -5}
	cfg.ApplyDefaults()
	if cfg.Threshold != 0 || cfg.CacheDir != DefaultCacheDir {
		t.Errorf("ApplyDefaults = %+v", cfg)
	}
}
