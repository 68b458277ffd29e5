package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sagarc03/r2gate"
)

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Lookup(ctx context.Context, id string) (r2gate.Session, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, username, created_at, expires_at FROM %s WHERE id = ?`, quoteIdentifier(r.tableName))

	var s r2gate.Session
	var createdAt string
	var expiresAt sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Username, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r2gate.Session{}, fmt.Errorf("lookup session: %w", r2gate.ErrInvalidSession)
		}
		return r2gate.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return r2gate.Session{}, fmt.Errorf("lookup session: parse created_at: %w", err)
	}

	if expiresAt.Valid {
		s.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt.String)
		if err != nil {
			return r2gate.Session{}, fmt.Errorf("lookup session: parse expires_at: %w", err)
		}
	}

	return s, nil
}

func (r *repo) Insert(ctx context.Context, s r2gate.Session) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT OR REPLACE INTO %s (id, username, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		quoteIdentifier(r.tableName))

	var expiresAt sql.NullString
	if !s.ExpiresAt.IsZero() {
		expiresAt = sql.NullString{String: s.ExpiresAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Username, s.CreatedAt.UTC().Format(time.RFC3339Nano), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *repo) Remove(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (r *repo) RemoveByUser(ctx context.Context, username string) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE username = ?`, quoteIdentifier(r.tableName)) //nolint:gosec // table name is validated

	res, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return 0, fmt.Errorf("remove user sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove user sessions: rows affected: %w", err)
	}
	return int(n), nil
}
