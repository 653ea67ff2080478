package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteKV implements [KeyValue] on the `storage` table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV creates a new [SQLiteKV] with the given database connection.
// The connection must have the shared migrations applied.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (r *SQLiteKV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	query := fmt.Sprintf("SELECT key, value FROM storage WHERE key IN (%s)", placeholders)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan storage row: %w", err)
		}
		out[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// Set upserts every pair inside one transaction.
func (r *SQLiteKV) Set(ctx context.Context, pairs map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	for k, v := range pairs {
		if _, err := tx.ExecContext(ctx, query, k, v); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit storage transaction: %w", err)
	}

	return nil
}

func (r *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM storage WHERE key = ?", k); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit storage transaction: %w", err)
	}

	return nil
}
