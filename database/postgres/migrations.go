package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createSessionTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexUsername := pgx.Identifier{fmt.Sprintf("idx_%s_username", tableName)}.Sanitize()
	indexExpiresAt := pgx.Identifier{fmt.Sprintf("idx_%s_expires_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (username);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (expires_at)
		WHERE (expires_at IS NOT NULL);
	`,
		quotedTable,
		indexUsername, quotedTable,
		indexExpiresAt, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create session table: %w", err)
	}
	return nil
}
