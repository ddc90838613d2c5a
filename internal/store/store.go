// Package store persists the merged reference catalog in SQLite.
// Imports upsert by code, so re-importing a price list updates prices in
// place and the catalog survives restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bad33ndj3/mcp-poz-match/internal/domain"

	_ "modernc.org/sqlite"
)

// Store defines catalog persistence operations.
type Store interface {
	// Upsert inserts items or updates the ones whose code already exists.
	// Returns the number of items written.
	Upsert(ctx context.Context, items []domain.ReferenceItem) (int, error)

	// All returns every item in first-import order.
	All(ctx context.Context) ([]domain.ReferenceItem, error)

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)

	// Clear removes every item.
	Clear(ctx context.Context) error

	Close() error
}

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store closed")

const schema = `
CREATE TABLE IF NOT EXISTS poz_items (
	code        TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	unit        TEXT NOT NULL DEFAULT '',
	unit_price  REAL NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const upsertQuery = `
INSERT INTO poz_items (code, description, unit, unit_price)
VALUES (?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET
	description = excluded.description,
	unit        = excluded.unit,
	unit_price  = excluded.unit_price,
	updated_at  = CURRENT_TIMESTAMP`

// SQLiteStore is the production Store backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path.
// The special path ":memory:" keeps the catalog in memory only.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" a
	// single database.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{`PRAGMA busy_timeout = 5000`, schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Upsert writes items in one transaction. Items without a code are skipped.
func (s *SQLiteStore) Upsert(ctx context.Context, items []domain.ReferenceItem) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, it := range items {
		if it.Code == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, it.Code, it.Description, it.Unit, it.UnitPrice); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", it.Code, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return n, nil
}

// All returns every item ordered by first insertion.
// Upserts keep the original row position.
func (s *SQLiteStore) All(ctx context.Context) ([]domain.ReferenceItem, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, description, unit, unit_price FROM poz_items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.ReferenceItem
	for rows.Next() {
		var it domain.ReferenceItem
		if err := rows.Scan(&it.Code, &it.Description, &it.Unit, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return items, nil
}

// Count returns the number of stored items.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poz_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// Clear removes every item.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM poz_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return nil
}

// Close releases the database. Further calls return ErrClosed.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
