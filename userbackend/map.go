// Package userbackend provides UserStore implementations and the users file format.
package userbackend

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sagarc03/r2gate"
)

// MapUserStore retrieves users from an in-memory map.
// The map is never mutated after construction, so reads need no locking.
type MapUserStore struct {
	users map[string]r2gate.User
}

// NewMapUserStore creates a new map-based user store with the given username to user mapping.
func NewMapUserStore(users map[string]r2gate.User) *MapUserStore {
	cp := make(map[string]r2gate.User, len(users))
	for name, u := range users {
		u.Username = name
		cp[name] = u
	}
	return &MapUserStore{users: cp}
}

// Lookup retrieves the user for the given username from the map.
func (s *MapUserStore) Lookup(username string) (r2gate.User, error) {
	user, found := s.users[username]
	if !found {
		return r2gate.User{}, fmt.Errorf("lookup %q: %w", username, ErrUserNotFound)
	}
	return user, nil
}

// Len returns the number of users in the store.
func (s *MapUserStore) Len() int {
	return len(s.users)
}

// Usernames returns all usernames in sorted order.
func (s *MapUserStore) Usernames() []string {
	return slices.Sorted(maps.Keys(s.users))
}
