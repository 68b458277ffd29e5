package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/database/postgres"
	"github.com/sagarc03/r2gate/database/sqlite"
)

// DefaultTable is the session table name used when none is configured.
const DefaultTable = "r2gate_sessions"

// Config holds the configuration for connecting to a session database.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn"`
	// Table is the name of the sessions table
	Table string `mapstructure:"table"`
}

// Database is the lifecycle shared by the SQL backends.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	SessionStore() r2gate.SessionStore
	Close() error
}

// Connect establishes a connection to the configured database backend,
// runs migrations, validates the schema, and returns a SessionStore.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (r2gate.SessionStore, func(), error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, table)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, table)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.SessionStore(), cleanup, nil
}
