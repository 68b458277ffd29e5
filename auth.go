package r2gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds session issuance settings.
type AuthConfig struct {
	// SessionTTL bounds a session's server-side lifetime. Zero disables expiry,
	// so sessions live until logout or restart of a non-persistent store.
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Authenticator verifies credentials and issues and resolves sessions.
type Authenticator struct {
	users    UserStore
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthenticator creates an Authenticator over the given user and session stores.
func NewAuthenticator(users UserStore, sessions SessionStore, cfg AuthConfig) (*Authenticator, error) {
	if users == nil {
		return nil, errors.New("new authenticator: user store cannot be nil")
	}
	if sessions == nil {
		return nil, errors.New("new authenticator: session store cannot be nil")
	}
	if cfg.SessionTTL < 0 {
		return nil, fmt.Errorf("new authenticator: negative session ttl %s", cfg.SessionTTL)
	}

	return &Authenticator{
		users:    users,
		sessions: sessions,
		ttl:      cfg.SessionTTL,
		now:      time.Now,
	}, nil
}

// VerifyCredentials reports whether token matches the stored bcrypt hash for
// username. Unknown users and malformed hashes fail closed.
func (a *Authenticator) VerifyCredentials(username, token string) bool {
	user, err := a.users.Lookup(username)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.TokenHash), []byte(token)) == nil
}

// Login verifies the credentials and issues a new session for the user.
// Both unknown users and wrong tokens return ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, token string) (Session, Identity, error) {
	if !a.VerifyCredentials(username, token) {
		return Session{}, Identity{}, ErrInvalidCredentials
	}

	user, err := a.users.Lookup(username)
	if err != nil {
		return Session{}, Identity{}, ErrInvalidCredentials
	}

	session, err := a.CreateSession(ctx, username)
	if err != nil {
		return Session{}, Identity{}, err
	}

	return session, Identity{Username: username, Name: user.Name}, nil
}

// CreateSession issues a random session id owned by username and stores it.
func (a *Authenticator) CreateSession(ctx context.Context, username string) (Session, error) {
	now := a.now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
	}
	if a.ttl > 0 {
		session.ExpiresAt = now.Add(a.ttl)
	}

	if err := a.sessions.Insert(ctx, session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// ResolveSession maps a session id to the identity of its owner.
// Unknown, expired, and orphaned sessions return ErrInvalidSession.
func (a *Authenticator) ResolveSession(ctx context.Context, sessionID string) (Identity, error) {
	session, err := a.sessions.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return Identity{}, ErrInvalidSession
		}
		return Identity{}, fmt.Errorf("resolve session: %w", err)
	}

	if session.Expired(a.now()) {
		if rmErr := a.sessions.Remove(ctx, session.ID); rmErr != nil {
			slog.Warn("failed to remove expired session", "user", session.Username, "err", rmErr)
		}
		return Identity{}, ErrInvalidSession
	}

	user, err := a.users.Lookup(session.Username)
	if err != nil {
		return Identity{}, ErrInvalidSession
	}

	return Identity{Username: session.Username, Name: user.Name}, nil
}

// EndSessionsForUser removes every session owned by username.
func (a *Authenticator) EndSessionsForUser(ctx context.Context, username string) error {
	n, err := a.sessions.RemoveByUser(ctx, username)
	if err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}
	slog.Debug("sessions ended", "user", username, "count", n)
	return nil
}
