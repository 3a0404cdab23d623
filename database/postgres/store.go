// Package postgres implements the registry store interface using PostgreSQL
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veriseal/veriseal"
)

type Store struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewStore(pool *pgxpool.Pool, tables veriseal.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &Store{pool: pool, tableName: tables.Reports}, nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ReadAll(ctx context.Context) (map[string]veriseal.Record, error) {
	query := fmt.Sprintf(`
		SELECT fingerprint, file_name, status, COALESCE(file_url, ''), COALESCE(mime_type, ''), created_at
		FROM %s
	`, pgx.Identifier{s.tableName}.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	defer rows.Close()

	records := make(map[string]veriseal.Record)
	for rows.Next() {
		var fingerprint string
		var rec veriseal.Record

		if err := rows.Scan(&fingerprint, &rec.FileName, &rec.Status, &rec.FileURL, &rec.MimeType, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("read all: scan: %w", err)
		}

		records[fingerprint] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read all: rows: %w", err)
	}

	return records, nil
}

// WriteAll replaces the table contents with the given map in one transaction,
// matching the registry's full-rewrite persistence model.
func (s *Store) WriteAll(ctx context.Context, records map[string]veriseal.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("write all: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := pgx.Identifier{s.tableName}.Sanitize()

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("write all: clear: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (fingerprint, file_name, status, file_url, mime_type, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, table)

	for fingerprint, rec := range records {
		_, err := tx.Exec(ctx, insertQuery,
			fingerprint, rec.FileName, rec.Status, rec.FileURL, rec.MimeType, rec.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("write all: insert %s: %w", fingerprint, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("write all: commit: %w", err)
	}

	return nil
}
