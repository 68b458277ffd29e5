// Package sqlite implements the session table using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/database/internal"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB provides SQLite database operations.
type DB struct {
	db    *sql.DB
	table string
}

// Connect opens a SQLite database. The table name is validated but the
// table is not created; call Migrate for that.
func Connect(ctx context.Context, dsn, table string) (*DB, error) {
	if err := internal.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	return &DB{db: db, table: table}, nil
}

// Ping verifies the database connection is alive.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the sessions table and its indexes if missing.
func (d *DB) Migrate(ctx context.Context) error {
	if err := createSessionTable(ctx, d.db, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the sessions table matches the expected structure.
func (d *DB) Validate(ctx context.Context) error {
	if err := validateTableSchema(ctx, d.db, d.table, sessionTableSchema); err != nil {
		return fmt.Errorf("validate schema %s: %w", d.table, err)
	}
	return nil
}

// SessionStore returns the SessionStore backed by this database.
func (d *DB) SessionStore() r2gate.SessionStore {
	return &repo{db: d.db, tableName: d.table}
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
