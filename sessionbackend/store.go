package sessionbackend

import (
	"context"
	"fmt"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/database"
)

// Session backend types.
const (
	TypeMemory   = "memory"
	TypeRedis    = "redis"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Config selects and configures the session backend.
type Config struct {
	Type  string      `mapstructure:"type" validate:"omitempty,oneof=memory redis sqlite postgres"`
	DSN   string      `mapstructure:"dsn"`
	Table string      `mapstructure:"table"`
	Redis RedisConfig `mapstructure:"redis"`
}

// New creates the session store described by cfg. An empty type selects the
// in-memory store. The returned cleanup releases the backend's connections.
func New(ctx context.Context, cfg Config) (r2gate.SessionStore, func(), error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemoryStore(), func() {}, nil
	case TypeRedis:
		store, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case TypeSQLite, TypePostgres:
		store, cleanup, err := database.Connect(ctx, database.Config{
			Type:  cfg.Type,
			DSN:   cfg.DSN,
			Table: cfg.Table,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		return store, cleanup, nil
	default:
		return nil, nil, fmt.Errorf("session store: unsupported type %q", cfg.Type)
	}
}
