// Package cache persists resolved track metadata in SQLite so replaying a
// collection does not refetch every track.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tessro/cadence/internal/core"
)

// Store is a track metadata cache backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache at path and brings its schema up to date.
// Use ":memory:" for a throwaway cache.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached track for id. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, id string) (core.Track, bool, error) {
	var t core.Track
	var durationMS int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, uri, title, artist, album, duration_ms FROM tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.URI, &t.Title, &t.Artist, &t.Album, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Track{}, false, nil
	}
	if err != nil {
		return core.Track{}, false, fmt.Errorf("failed to read cached track: %w", err)
	}
	t.Duration = time.Duration(durationMS) * time.Millisecond
	return t, true, nil
}

// Put stores t, replacing any earlier entry for the same ID.
func (s *Store) Put(ctx context.Context, t core.Track) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tracks (id, uri, title, artist, album, duration_ms, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		t.ID, t.URI, t.Title, t.Artist, t.Album, t.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

// Len returns the number of cached tracks.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&n)
	return n, err
}
