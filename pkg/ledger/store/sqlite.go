package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteEventStore persists event bodies to SQLite, keyed singly by
// event id (unlike the teacher's checkpoint store, which composite-
// keys on run+node; a committed event never needs a second dimension).
// Suitable for single-process production use.
type SQLiteEventStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteEventStore opens (creating if absent) a SQLite-backed
// EventStore at path, or ":memory:" for testing.
//
// The database file is created with restrictive permissions (0600)
// before sql.Open ever touches it, avoiding a TOCTOU window where the
// file is briefly world-readable.
func NewSQLiteEventStore(path string) (*SQLiteEventStore, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			f, createErr := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
			if createErr == nil {
				if closeErr := f.Close(); closeErr != nil {
					slog.Warn("failed to close event store file after creation",
						slog.String("path", path),
						slog.String("error", closeErr.Error()))
				}
			}
			// Ignore createErr - the file may have been created
			// between Stat and OpenFile (TOCTOU); sql.Open handles
			// any real problem.
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			event_id TEXT NOT NULL PRIMARY KEY,
			body     BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if path != ":memory:" {
		if err := os.Chmod(path, 0600); err != nil {
			slog.Warn("failed to set restrictive permissions on event store file",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	return &SQLiteEventStore{db: db}, nil
}

var _ EventStore = (*SQLiteEventStore)(nil)

// Put implements EventStore.
func (s *SQLiteEventStore) Put(key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO events (event_id, body) VALUES (?, ?)
		ON CONFLICT(event_id) DO UPDATE SET body = excluded.body
	`, key, body)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// Get implements EventStore.
func (s *SQLiteEventStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	var body []byte
	err := s.db.QueryRow(`SELECT body FROM events WHERE event_id = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return body, nil
}

// Has implements EventStore.
func (s *SQLiteEventStore) Has(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrClosed
	}

	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM events WHERE event_id = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return true, nil
}

// All implements EventStore.
func (s *SQLiteEventStore) All(fn func(key string, body []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	rows, err := s.db.Query(`SELECT event_id, body FROM events`)
	if err != nil {
		return fmt.Errorf("iterate events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var body []byte
		if err := rows.Scan(&key, &body); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		if err := fn(key, body); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close implements EventStore.
func (s *SQLiteEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
