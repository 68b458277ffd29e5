// Package sessionbackend provides SessionStore implementations.
package sessionbackend

import (
	"context"
	"fmt"
	"sync"

	"github.com/sagarc03/r2gate"
)

// MemoryStore keeps sessions in a process-local map guarded by a
// read/write lock. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]r2gate.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]r2gate.Session)}
}

// Lookup returns the session with the given id.
func (s *MemoryStore) Lookup(_ context.Context, id string) (r2gate.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return r2gate.Session{}, fmt.Errorf("lookup session: %w", r2gate.ErrInvalidSession)
	}
	return session, nil
}

// Insert stores session, replacing any entry with the same id.
func (s *MemoryStore) Insert(_ context.Context, session r2gate.Session) error {
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return nil
}

// Remove deletes the session with the given id.
func (s *MemoryStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// RemoveByUser deletes every session owned by username.
func (s *MemoryStore) RemoveByUser(_ context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.Username == username {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
