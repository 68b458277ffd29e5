package r2gate

import "errors"

var (
	// ErrNotFound is returned when an object does not exist in the store
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingSession is returned when a request carries no session cookie
	ErrMissingSession = errors.New("missing session")
	// ErrInvalidSession is returned when a session id cannot be resolved to a user
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidCredentials is returned when a username/token pair does not verify
	ErrInvalidCredentials = errors.New("invalid username or token")
)
