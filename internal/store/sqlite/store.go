// Package sqlite provides a SQLite-backed store.Store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for places and users.
//
// Writes go through a single connection opened with BEGIN IMMEDIATE, so
// read-write transactions are serialized by SQLite's write lock. Reads use
// a separate pool and see WAL snapshots.
type Store struct {
	db     *sql.DB // writer
	readDB *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	writer, err := openDB(path, "immediate")
	if err != nil {
		return nil, err
	}
	// One writer; callers queue in the pool instead of hitting SQLITE_BUSY.
	writer.SetMaxOpenConns(1)

	if _, err := writer.Exec(schemaSQL); err != nil {
		writer.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	reader, err := openDB(path, "deferred")
	if err != nil {
		writer.Close()
		return nil, err
	}
	reader.SetMaxOpenConns(4)
	reader.SetMaxIdleConns(2)
	reader.SetConnMaxLifetime(time.Hour)

	if logger != nil {
		logger.Info("SQLite database opened successfully", "path", path)
	}

	return &Store{db: writer, readDB: reader, logger: logger}, nil
}

// openDB opens a handle whose connections all carry the same pragmas.
func openDB(path, txlock string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", txlock)

	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Close closes both connection pools.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return errors.Join(s.readDB.Close(), s.db.Close())
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	return s.run(ctx, s.db, fn)
}

// View implements store.Store.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	return s.run(ctx, s.readDB, fn)
}

func (s *Store) run(ctx context.Context, db *sql.DB, fn func(store.Tx) error) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// GetPlacesByIDs implements store.Store. Missing ids are skipped.
func (s *Store) GetPlacesByIDs(ctx context.Context, ids []string) ([]*domain.Place, error) {
	places := make([]*domain.Place, 0, len(ids))

	err := s.View(ctx, func(tx store.Tx) error {
		for _, id := range ids {
			place, err := tx.GetPlace(ctx, id)
			if errors.Is(err, store.ErrPlaceNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			places = append(places, place)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return places, nil
}

// ListPlaces implements store.Store.
func (s *Store) ListPlaces(ctx context.Context) iter.Seq2[*domain.Place, error] {
	return func(yield func(*domain.Place, error) bool) {
		var places []*domain.Place
		err := s.View(ctx, func(tx store.Tx) error {
			for place, err := range tx.Places(ctx) {
				if err != nil {
					return err
				}
				places = append(places, place)
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
			return
		}

		for _, place := range places {
			if !yield(place, nil) {
				return
			}
		}
	}
}

// ListUsers implements store.Store.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User

	err := s.View(ctx, func(tx store.Tx) error {
		for user, err := range tx.Users(ctx) {
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return s.readDB.PingContext(ctx)
}

// mapError translates lock contention into store.ErrConflict.
func mapError(err error) error {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", store.ErrConflict, err)
	}
	return err
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// nullString returns a NULL for the empty string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// sqlTx adapts a database/sql transaction to store.Tx.
type sqlTx struct {
	tx *sql.Tx
}
