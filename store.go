package r2gate

import (
	"context"
)

// UserStore is the read-only credential table.
type UserStore interface {
	// Lookup returns the user with the given username.
	//
	// Returns:
	//   - User: the stored record with Username populated
	//   - error: an error wrapping ErrUnauthorized if the user does not exist
	Lookup(username string) (User, error)
}

// SessionStore holds live sessions. Implementations must be safe for
// concurrent use by many request goroutines.
//
// All methods accept a context for cancellation; the in-memory store ignores it.
type SessionStore interface {
	// Lookup returns the session with the given id.
	//
	// Returns:
	//   - Session: the stored session
	//   - error: an error wrapping ErrInvalidSession if the id is unknown
	Lookup(ctx context.Context, id string) (Session, error)

	// Insert stores a new session. An existing entry with the same id is replaced.
	Insert(ctx context.Context, session Session) error

	// Remove deletes a single session. Removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error

	// RemoveByUser deletes every session owned by username and reports how
	// many were removed.
	RemoveByUser(ctx context.Context, username string) (int, error)
}

// ObjectStore is a remote key/value object store addressed by full keys.
// Implementations perform a single round trip per call with no retries.
type ObjectStore interface {
	// List returns objects whose key starts with prefix. A positive limit caps
	// the number of entries fetched in the single request made; no further
	// pages are requested.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)

	// Put stores data at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get opens the object at key.
	//
	// Returns:
	//   - Object: body, content type and size; the caller must close Body
	//   - error: an error wrapping ErrNotFound if the key does not exist
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the object at key. Whether deleting a missing key is an
	// error is up to the backing store; S3-compatible stores report success.
	Delete(ctx context.Context, key string) error
}
