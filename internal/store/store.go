// Package store persists the canonical event set in SQLite. The pipeline
// only ever replaces the whole set; reads exist for the CLI and exports.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	appLog "eventplanner/internal/log"
	"eventplanner/internal/model"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if path == MemoryPath {
		// every connection would get its own empty database otherwise
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			date        TEXT NOT NULL,
			time        TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			subcategory TEXT NOT NULL DEFAULT '',
			position    INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Clear removes every stored event.
func (s *Store) Clear(ctx context.Context) error {
	return deleteAll(ctx, s.db)
}

// BulkInsert inserts events in one transaction. Input order is kept by All.
func (s *Store) BulkInsert(ctx context.Context, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	base, err := nextPosition(ctx, tx)
	if err != nil {
		return err
	}
	if err := insert(ctx, tx, events, base); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Replace swaps the stored set for events atomically: readers see either
// the old set or the new one.
func (s *Store) Replace(ctx context.Context, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteAll(ctx, tx); err != nil {
		return err
	}
	if err := insert(ctx, tx, events, 0); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	appLog.Debug("store replaced", "events", len(events), "path", s.path)
	return nil
}

// All returns the stored events in insertion order.
func (s *Store) All(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, date, time, category, subcategory FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.Time, &e.Tags[0], &e.Tags[1]); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func deleteAll(ctx context.Context, db execer) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}

func nextPosition(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: next position: %w", err)
	}
	return n, nil
}

func insert(ctx context.Context, tx *sql.Tx, events []model.Event, base int) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, name, date, time, category, subcategory, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Date, e.Time, e.Tags[0], e.Tags[1], base+i); err != nil {
			return fmt.Errorf("store: insert %s: %w", e.ID, err)
		}
	}
	return nil
}
