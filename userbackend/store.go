package userbackend

import (
	"errors"
	"log/slog"
	"os"

	"github.com/sagarc03/r2gate"
)

// UsersConfig holds configuration for loading the credential table.
type UsersConfig struct {
	Inline map[string]r2gate.User `mapstructure:"inline"` // Inline users from config
	File   string                 `mapstructure:"file"`   // Path to JSON or YAML users file
}

// NewUserStore creates a MapUserStore from the given configuration.
// It merges inline users with those from the users file; file entries take
// precedence on duplicates. A missing users file yields no file users.
func NewUserStore(cfg UsersConfig) (*MapUserStore, error) {
	users := make(map[string]r2gate.User)

	for name, u := range cfg.Inline {
		if name != "" && u.TokenHash != "" {
			users[name] = u
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadUsersFromFile(cfg.File)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Info("no users file found, starting without file users", "file", cfg.File)
		case err != nil:
			return nil, err
		default:
			for name, u := range fileUsers {
				users[name] = u
			}
		}
	}

	return NewMapUserStore(users), nil
}
