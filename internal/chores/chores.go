// Package chores tracks recurring chores and when they were last done.
package chores

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// InMemory opens a database that lives only as long as the Store.
const InMemory = ":memory:"

// ErrUnknownChore is returned for a chore with no definition.
var ErrUnknownChore = errors.New("unknown chore")

// Definition is a chore that should be done every IntervalDays days.
type Definition struct {
	Name         string
	IntervalDays int
}

// Interval returns the chore's period.
func (d Definition) Interval() time.Duration {
	return time.Duration(d.IntervalDays) * 24 * time.Hour
}

// Status is a chore with its completion state.
type Status struct {
	Definition
	LastDone time.Time // zero if never done
	Due      bool
}

// Store keeps chore completions in SQLite.
type Store struct {
	db   *sql.DB
	defs []Definition

	// Now is the clock used for completions and due checks.
	Now func() time.Time
}

// Open opens (creating if needed) the completion database at path.
func Open(path string, defs []Definition) (*Store, error) {
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database is per connection, and
	// there is only ever one writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, defs: defs, Now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Definitions returns the configured chores.
func (s *Store) Definitions() []Definition {
	return s.defs
}

// Find returns the definition named name.
func (s *Store) Find(name string) (Definition, error) {
	for _, d := range s.defs {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownChore, name)
}

// MarkComplete records that the chore was done now.
func (s *Store) MarkComplete(ctx context.Context, name string) error {
	if _, err := s.Find(name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chore_completions (name, completed_at) VALUES (?, ?)`,
		name, s.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording completion of %q: %w", name, err)
	}
	return nil
}

// LastDone returns the most recent completion, or the zero time if there is none.
func (s *Store) LastDone(ctx context.Context, name string) (time.Time, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(completed_at) FROM chore_completions WHERE name = ?`, name).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading completions of %q: %w", name, err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return time.Unix(0, last.Int64), nil
}

// IsDue reports whether a full interval has passed since the chore was last
// done. A chore that was never done is due.
func (s *Store) IsDue(ctx context.Context, d Definition) (bool, error) {
	last, err := s.LastDone(ctx, d.Name)
	if err != nil {
		return false, err
	}
	return isDue(d, last, s.Now()), nil
}

func isDue(d Definition, last, now time.Time) bool {
	return last.IsZero() || now.Sub(last) >= d.Interval()
}

// Statuses returns every chore with its last completion.
func (s *Store) Statuses(ctx context.Context) ([]Status, error) {
	now := s.Now()
	out := make([]Status, 0, len(s.defs))
	for _, d := range s.defs {
		last, err := s.LastDone(ctx, d.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Status{Definition: d, LastDone: last, Due: isDue(d, last, now)})
	}
	return out, nil
}

// Due returns the chores that are due, in definition order.
func (s *Store) Due(ctx context.Context) ([]Definition, error) {
	statuses, err := s.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	var due []Definition
	for _, st := range statuses {
		if st.Due {
			due = append(due, st.Definition)
		}
	}
	return due, nil
}
