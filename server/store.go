// Package server is the self-hosted record endpoint: one opaque account
// book per authenticated user, stored in SQLite, served over HTTP.
package server

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Record is one stored row: a user's whole account book as an opaque
// payload plus its logical clock.
type Record struct {
	UserID    string
	Payload   []byte
	UpdatedAt int64
}

// Store persists one record per user in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore creates or opens the database at path. WAL mode keeps reads
// concurrent with the single writer.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to database %q: %w", path, err)
	}

	// SQLite allows a single writer; a second connection would only
	// collect SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the user's record, or nil when none exists.
func (s *Store) Get(ctx context.Context, userID string) (*Record, error) {
	rec := Record{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM records WHERE user_id = ?`, userID).
		Scan(&rec.Payload, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read record for %q: %w", userID, err)
	}
	return &rec, nil
}

// Put upserts the user's record.
func (s *Store) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (user_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		rec.UserID, rec.Payload, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cannot write record for %q: %w", rec.UserID, err)
	}
	return nil
}
