package userbackend

import (
	"fmt"

	"github.com/sagarc03/r2gate"
)

// ErrUserNotFound is returned when the username does not exist in the store.
var ErrUserNotFound = fmt.Errorf("user not found: %w", r2gate.ErrUnauthorized)
