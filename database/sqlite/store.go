// Package sqlite implements the registry store interface using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veriseal/veriseal"
)

type Store struct {
	db        *sql.DB
	tableName string
}

func NewStore(db *sql.DB, tables veriseal.Tables) (*Store, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &Store{db: db, tableName: tables.Reports}, nil
}

func (s *Store) ReadAll(ctx context.Context) (map[string]veriseal.Record, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT fingerprint, file_name, status, file_url, mime_type, created_at FROM %s`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]veriseal.Record)
	for rows.Next() {
		var fingerprint, createdAt string
		var fileURL, mimeType sql.NullString
		var rec veriseal.Record

		if err := rows.Scan(&fingerprint, &rec.FileName, &rec.Status, &fileURL, &mimeType, &createdAt); err != nil {
			return nil, fmt.Errorf("read all: scan: %w", err)
		}

		rec.FileURL = fileURL.String
		rec.MimeType = mimeType.String

		// A bad timestamp keeps the record; it just sorts as oldest.
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write all: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deleteQuery := fmt.Sprintf(`DELETE FROM %s`, s.tableName) //nolint:gosec // table name is validated
	if _, err := tx.ExecContext(ctx, deleteQuery); err != nil {
		return fmt.Errorf("write all: clear: %w", err)
	}

	insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (fingerprint, file_name, status, file_url, mime_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, s.tableName)

	for fingerprint, rec := range records {
		_, err := tx.ExecContext(ctx, insertQuery,
			fingerprint, rec.FileName, rec.Status,
			nullable(rec.FileURL), nullable(rec.MimeType),
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("write all: insert %s: %w", fingerprint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write all: commit: %w", err)
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
