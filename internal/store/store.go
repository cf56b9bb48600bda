// Package store persists job settings, captures, QA overrides, unit timers and the
// activity log in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Simplici0/edmtrack/internal/qa"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOverlap    = errors.New("capture range overlaps an existing capture")
	ErrDispatched = qa.ErrAlreadyDispatched
	ErrLocked     = errors.New("timer already started")
	ErrIncomplete = errors.New("capture incomplete")
	ErrInvalid    = errors.New("invalid input")
)

// Store wraps the database handle. Now defaults to time.Now.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

// New returns a Store using the wall clock.
func New(db *sql.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Store) activity() Writer {
	return Writer{Now: s.now}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
