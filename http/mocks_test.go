package http_test

import (
	"context"

	"github.com/sagarc03/r2gate"
	"github.com/stretchr/testify/mock"
)

// MockAuthenticator is a mock implementation of http.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, username, token string) (r2gate.Session, r2gate.Identity, error) {
	args := m.Called(ctx, username, token)
	return args.Get(0).(r2gate.Session), args.Get(1).(r2gate.Identity), args.Error(2)
}

func (m *MockAuthenticator) ResolveSession(ctx context.Context, sessionID string) (r2gate.Identity, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(r2gate.Identity), args.Error(1)
}

func (m *MockAuthenticator) EndSessionsForUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockStorage is a mock implementation of http.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) List(ctx context.Context, q r2gate.ListQuery) ([]r2gate.FileInfo, error) {
	args := m.Called(ctx, q)
	files, _ := args.Get(0).([]r2gate.FileInfo)
	return files, args.Error(1)
}

func (m *MockStorage) Upload(ctx context.Context, filename string, data []byte, contentType string) error {
	args := m.Called(ctx, filename, data, contentType)
	return args.Error(0)
}

func (m *MockStorage) Download(ctx context.Context, filename string) (r2gate.Object, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(r2gate.Object), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, filename string) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}
