package r2gate

import (
	"io"
	"time"
)

// User is an entry of the credential store.
type User struct {
	Username  string `json:"-" yaml:"-" mapstructure:"-"`
	Name      string `json:"name" yaml:"name" mapstructure:"name"`
	TokenHash string `json:"token_hash" yaml:"token_hash" mapstructure:"token_hash"`
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Session maps an opaque session id to its owning user.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// ObjectInfo describes an object as reported by the remote store, keyed by its full key.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Object is a downloaded object. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// FileInfo is an object as presented to callers, with the namespace stripped.
type FileInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// ListQuery selects objects under the namespace.
type ListQuery struct {
	Prefix string
	// Limit caps the number of entries fetched. Zero means the store default.
	Limit int
}

// UnknownLastModified is reported when the store does not return a timestamp.
const UnknownLastModified = "Unknown"

// DefaultContentType is used when neither the caller nor the store supply one.
const DefaultContentType = "application/octet-stream"
