package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/r2gate"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Lookup(ctx context.Context, id string) (r2gate.Session, error) {
	quotedTable := pgx.Identifier{r.tableName}.Sanitize()
	query := fmt.Sprintf(`
		SELECT id, username, created_at, expires_at
		FROM %s
		WHERE id = $1
	`, quotedTable)

	var s r2gate.Session
	var expiresAt *time.Time

	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Username, &s.CreatedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r2gate.Session{}, fmt.Errorf("lookup session: %w", r2gate.ErrInvalidSession)
		}
		return r2gate.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	if expiresAt != nil {
		s.ExpiresAt = *expiresAt
	}
	return s, nil
}

func (r *repo) Insert(ctx context.Context, s r2gate.Session) error {
	quotedTable := pgx.Identifier{r.tableName}.Sanitize()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, quotedTable)

	var expiresAt *time.Time
	if !s.ExpiresAt.IsZero() {
		expiresAt = &s.ExpiresAt
	}

	if _, err := r.pool.Exec(ctx, query, s.ID, s.Username, s.CreatedAt, expiresAt); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *repo) Remove(ctx context.Context, id string) error {
	quotedTable := pgx.Identifier{r.tableName}.Sanitize()
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, quotedTable)

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (r *repo) RemoveByUser(ctx context.Context, username string) (int, error) {
	quotedTable := pgx.Identifier{r.tableName}.Sanitize()
	query := fmt.Sprintf(`DELETE FROM %s WHERE username = $1`, quotedTable)

	tag, err := r.pool.Exec(ctx, query, username)
	if err != nil {
		return 0, fmt.Errorf("remove user sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
