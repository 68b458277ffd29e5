package r2gate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sagarc03/r2gate"
	"github.com/sagarc03/r2gate/sessionbackend"
	"github.com/sagarc03/r2gate/userbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashToken(t *testing.T, token string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestAuthenticator(t *testing.T, cfg r2gate.AuthConfig) (*r2gate.Authenticator, *sessionbackend.MemoryStore) {
	t.Helper()

	users := userbackend.NewMapUserStore(map[string]r2gate.User{
		"alice": {Name: "Alice A.", TokenHash: hashToken(t, "correct-token")},
		"bob":   {Name: "Bob B.", TokenHash: hashToken(t, "bob-token")},
		"eve":   {Name: "Eve", TokenHash: "not-a-bcrypt-hash"},
	})
	sessions := sessionbackend.NewMemoryStore()

	auth, err := r2gate.NewAuthenticator(users, sessions, cfg)
	require.NoError(t, err)
	return auth, sessions
}

func TestNewAuthenticator_Validation(t *testing.T) {
	users := userbackend.NewMapUserStore(nil)
	sessions := sessionbackend.NewMemoryStore()

	_, err := r2gate.NewAuthenticator(nil, sessions, r2gate.AuthConfig{})
	assert.Error(t, err)

	_, err = r2gate.NewAuthenticator(users, nil, r2gate.AuthConfig{})
	assert.Error(t, err)

	_, err = r2gate.NewAuthenticator(users, sessions, r2gate.AuthConfig{SessionTTL: -time.Second})
	assert.Error(t, err)
}

func TestAuthenticator_VerifyCredentials(t *testing.T) {
	auth, _ := newTestAuthenticator(t, r2gate.AuthConfig{})

	tests := []struct {
		name     string
		username string
		token    string
		want     bool
	}{
		{name: "valid pair", username: "alice", token: "correct-token", want: true},
		{name: "wrong token", username: "alice", token: "wrong-token", want: false},
		{name: "other user's token", username: "alice", token: "bob-token", want: false},
		{name: "unknown user", username: "mallory", token: "correct-token", want: false},
		{name: "empty token", username: "alice", token: "", want: false},
		{name: "malformed stored hash", username: "eve", token: "anything", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.VerifyCredentials(tt.username, tt.token))
		})
	}
}

func TestAuthenticator_Login(t *testing.T) {
	auth, sessions := newTestAuthenticator(t, r2gate.AuthConfig{})
	ctx := context.Background()

	session, identity, err := auth.Login(ctx, "alice", "correct-token")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "alice", session.Username)
	assert.True(t, session.ExpiresAt.IsZero())
	assert.Equal(t, r2gate.Identity{Username: "alice", Name: "Alice A."}, identity)

	stored, err := sessions.Lookup(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)

	_, _, err = auth.Login(ctx, "alice", "nope")
	assert.ErrorIs(t, err, r2gate.ErrInvalidCredentials)

	_, _, err = auth.Login(ctx, "nobody", "correct-token")
	assert.ErrorIs(t, err, r2gate.ErrInvalidCredentials)
}

func TestAuthenticator_CreateSession_UniqueIDs(t *testing.T) {
	auth, _ := newTestAuthenticator(t, r2gate.AuthConfig{})
	ctx := context.Background()

	seen := make(map[string]bool)
	for range 100 {
		s, err := auth.CreateSession(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, seen[s.ID], "duplicate session id")
		seen[s.ID] = true
	}
}

func TestAuthenticator_ResolveSession(t *testing.T) {
	auth, sessions := newTestAuthenticator(t, r2gate.AuthConfig{})
	ctx := context.Background()

	session, err := auth.CreateSession(ctx, "alice")
	require.NoError(t, err)

	identity, err := auth.ResolveSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, r2gate.Identity{Username: "alice", Name: "Alice A."}, identity)

	t.Run("unknown ids rejected regardless of format", func(t *testing.T) {
		for _, id := range []string{"", "x", "00000000-0000-0000-0000-000000000000", session.ID + "0", "; drop"} {
			_, err := auth.ResolveSession(ctx, id)
			assert.ErrorIs(t, err, r2gate.ErrInvalidSession, "id %q", id)
		}
	})

	t.Run("orphaned session rejected", func(t *testing.T) {
		err := sessions.Insert(ctx, r2gate.Session{ID: "orphan", Username: "deleted-user"})
		require.NoError(t, err)

		_, err = auth.ResolveSession(ctx, "orphan")
		assert.ErrorIs(t, err, r2gate.ErrInvalidSession)
	})
}

func TestAuthenticator_ResolveSession_Expired(t *testing.T) {
	auth, sessions := newTestAuthenticator(t, r2gate.AuthConfig{SessionTTL: time.Millisecond})
	ctx := context.Background()

	session, err := auth.CreateSession(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, session.ExpiresAt.IsZero())

	time.Sleep(5 * time.Millisecond)

	_, err = auth.ResolveSession(ctx, session.ID)
	assert.ErrorIs(t, err, r2gate.ErrInvalidSession)

	_, err = sessions.Lookup(ctx, session.ID)
	assert.ErrorIs(t, err, r2gate.ErrInvalidSession, "expired session is evicted")
}

func TestAuthenticator_EndSessionsForUser(t *testing.T) {
	auth, _ := newTestAuthenticator(t, r2gate.AuthConfig{})
	ctx := context.Background()

	var aliceIDs []string
	for range 3 {
		s, err := auth.CreateSession(ctx, "alice")
		require.NoError(t, err)
		aliceIDs = append(aliceIDs, s.ID)
	}
	bob, err := auth.CreateSession(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, auth.EndSessionsForUser(ctx, "alice"))

	for _, id := range aliceIDs {
		_, err := auth.ResolveSession(ctx, id)
		assert.ErrorIs(t, err, r2gate.ErrInvalidSession)
	}

	identity, err := auth.ResolveSession(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", identity.Username)
}

type failingSessionStore struct {
	mock.Mock
}

func (f *failingSessionStore) Lookup(ctx context.Context, id string) (r2gate.Session, error) {
	args := f.Called(ctx, id)
	return args.Get(0).(r2gate.Session), args.Error(1)
}

func (f *failingSessionStore) Insert(ctx context.Context, s r2gate.Session) error {
	return f.Called(ctx, s).Error(0)
}

func (f *failingSessionStore) Remove(ctx context.Context, id string) error {
	return f.Called(ctx, id).Error(0)
}

func (f *failingSessionStore) RemoveByUser(ctx context.Context, username string) (int, error) {
	args := f.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func TestAuthenticator_StoreErrors(t *testing.T) {
	users := userbackend.NewMapUserStore(map[string]r2gate.User{
		"alice": {Name: "Alice", TokenHash: hashToken(t, "tok")},
	})
	store := new(failingSessionStore)
	auth, err := r2gate.NewAuthenticator(users, store, r2gate.AuthConfig{})
	require.NoError(t, err)

	ctx := context.Background()
	backendErr := errors.New("connection refused")

	store.On("Insert", ctx, mock.Anything).Return(backendErr)
	store.On("Lookup", ctx, "abc").Return(r2gate.Session{}, backendErr)
	store.On("RemoveByUser", ctx, "alice").Return(0, backendErr)

	_, _, err = auth.Login(ctx, "alice", "tok")
	assert.ErrorIs(t, err, backendErr)

	_, err = auth.ResolveSession(ctx, "abc")
	assert.ErrorIs(t, err, backendErr)
	assert.NotErrorIs(t, err, r2gate.ErrInvalidSession)

	err = auth.EndSessionsForUser(ctx, "alice")
	assert.ErrorIs(t, err, backendErr)
}
