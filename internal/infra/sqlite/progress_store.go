// Package sqlite stores progress records in a local SQLite file for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-ops-scorecard/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// ProgressStore is a durable key-value table of progress records.
type ProgressStore struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the database at path and ensures the table exists.
func Open(path string) (*ProgressStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &ProgressStore{conn: conn, now: time.Now}, nil
}

func createTables(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS progress (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	return err
}

// Close closes the database connection.
func (s *ProgressStore) Close() error {
	return s.conn.Close()
}

func (s *ProgressStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, "SELECT value FROM progress WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrProgressNotFound
	}
	return value, err
}

func (s *ProgressStore) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO progress (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, s.now().Unix(),
	)
	return err
}

func (s *ProgressStore) Remove(ctx context.Context, key string) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM progress WHERE key = ?", key)
	return err
}

// Prune deletes records untouched for longer than maxAge and returns how many went.
func (s *ProgressStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().Add(-maxAge).Unix()
	res, err := s.conn.ExecContext(ctx, "DELETE FROM progress WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
