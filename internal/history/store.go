// Package history persists a record of past download invocations.
package history

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when an invocation record does not exist.
var ErrNotFound = errors.New("invocation not found")

// Status tracks the lifecycle of a recorded invocation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Record is one download invocation. Archive bytes are never stored, only
// the metadata of the run.
type Record struct {
	ID          string
	Target      string
	Mode        string
	Status      Status
	Requested   int
	Archived    int
	ArchiveName string
	Error       string
	CreatedAt   time.Time
	FinishedAt  *time.Time
}

// Store persists invocation records.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database, applying the schema.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, *sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history db: %w", err)
	}

	store, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// Add inserts a new invocation record.
func (s *Store) Add(r *Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO invocations (id, target, mode, status, requested, archived, archive_name, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Target, r.Mode, r.Status, r.Requested, r.Archived, r.ArchiveName, r.Error, r.CreatedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an invocation record.
// Returns ErrNotFound if the record does not exist.
func (s *Store) Update(r *Record) error {
	result, err := s.db.Exec(`
		UPDATE invocations
		SET status = ?, requested = ?, archived = ?, archive_name = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		r.Status, r.Requested, r.Archived, r.ArchiveName, r.Error, r.FinishedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update invocation %s: %w", r.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update invocation %s: %w", r.ID, ErrNotFound)
	}
	return nil
}

// Get retrieves an invocation by ID.
// Returns ErrNotFound if the record does not exist.
func (s *Store) Get(id string) (*Record, error) {
	r := &Record{}
	err := s.db.QueryRow(`
		SELECT id, target, mode, status, requested, archived, archive_name, error, created_at, finished_at
		FROM invocations WHERE id = ?`, id,
	).Scan(&r.ID, &r.Target, &r.Mode, &r.Status, &r.Requested, &r.Archived, &r.ArchiveName, &r.Error, &r.CreatedAt, &r.FinishedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get invocation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invocation %s: %w", id, err)
	}
	return r, nil
}

// List returns the most recent invocations, newest first. limit <= 0 means
// no limit.
func (s *Store) List(limit int) ([]*Record, error) {
	query := `
		SELECT id, target, mode, status, requested, archived, archive_name, error, created_at, finished_at
		FROM invocations ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Record
	for rows.Next() {
		r := &Record{}
		if err := rows.Scan(&r.ID, &r.Target, &r.Mode, &r.Status, &r.Requested, &r.Archived, &r.ArchiveName, &r.Error, &r.CreatedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invocations: %w", err)
	}

	return results, nil
}
