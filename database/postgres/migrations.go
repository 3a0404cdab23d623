package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veriseal/veriseal"
)

func createReportsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreatedAt := pgx.Identifier{fmt.Sprintf("idx_%s_created_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			fingerprint TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			status TEXT NOT NULL,
			file_url TEXT,
			mime_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at);
	`,
		quotedTable,
		indexCreatedAt, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create reports table: %w", err)
	}
	return nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables veriseal.Tables) error {
	if err := createReportsTable(ctx, pool, tables.Reports); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables veriseal.Tables) error {
	quotedTable := pgx.Identifier{tables.Reports}.Sanitize()
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable))
	return err
}
