package store

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

	"anchorcal/internal/model"
)

//go:embed schema.sql
var schema string

const upsert = `INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLite stores each document as one row of the documents table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context, key string, v any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM documents WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &model.PersistenceError{Op: "load", Key: key, Err: err}
	}
	return true, decode(key, []byte(value), v)
}

func (s *SQLite) Save(ctx context.Context, key string, v any) error {
	data, err := encode("save", key, v)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsert, key, string(data), time.Now().UTC()); err != nil {
		return &model.PersistenceError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// SaveBatch writes all docs in a single transaction.
func (s *SQLite) SaveBatch(ctx context.Context, docs map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.PersistenceError{Op: "batch", Err: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for key, v := range docs {
		data, err := encode("batch", key, v)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsert, key, string(data), now); err != nil {
			return &model.PersistenceError{Op: "batch", Key: key, Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &model.PersistenceError{Op: "batch", Err: err}
	}
	return nil
}
