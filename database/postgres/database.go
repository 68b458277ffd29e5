// Package postgres implements the session table using PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/database/internal"
)

// DB provides PostgreSQL database operations.
type DB struct {
	pool  *pgxpool.Pool
	table string
}

// Connect establishes a connection pool to PostgreSQL.
func Connect(ctx context.Context, dsn, table string) (*DB, error) {
	if err := internal.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &DB{pool: pool, table: table}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate creates the sessions table and its indexes if missing.
func (d *DB) Migrate(ctx context.Context) error {
	if err := createSessionTable(ctx, d.pool, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the sessions table matches the expected structure.
func (d *DB) Validate(ctx context.Context) error {
	if err := validateTableSchema(ctx, d.pool, d.table, sessionTableSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", d.table, err)
	}
	return nil
}

// SessionStore returns the SessionStore backed by this database.
func (d *DB) SessionStore() r2gate.SessionStore {
	return &repo{pool: d.pool, tableName: d.table}
}

// Close closes the database connection pool.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
