package userbackend

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sagarc03/r2gate"
)

// LoadUsersFromFile loads users from a JSON or YAML file, chosen by extension
// (.yaml/.yml for YAML, anything else JSON). The file maps usernames to entries:
//
//	{
//	  "alice": {"name": "Alice A.", "token_hash": "$2b$12$..."},
//	  "bob":   {"name": "Bob", "token_hash": "$2b$12$..."}
//	}
//
// Entries with an empty username or token hash are skipped.
func LoadUsersFromFile(path string) (map[string]r2gate.User, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var raw map[string]r2gate.User
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	users := make(map[string]r2gate.User, len(raw))
	for name, u := range raw {
		if name == "" || u.TokenHash == "" {
			continue
		}
		u.Username = name
		users[name] = u
	}

	return users, nil
}

// SaveUsersToFile writes users to path atomically by writing a temp file in
// the same directory and renaming it over the target.
func SaveUsersToFile(path string, users map[string]r2gate.User) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(users)
	} else {
		data, err = json.MarshalIndent(users, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp users file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp users file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp users file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename users file: %w", err)
	}

	success = true
	return nil
}

// loadOrEmpty loads path, treating a missing file as an empty table.
func loadOrEmpty(path string) (map[string]r2gate.User, error) {
	users, err := LoadUsersFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]r2gate.User), nil
	}
	return users, err
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
