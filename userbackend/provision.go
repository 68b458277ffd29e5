package userbackend

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sagarc03/r2gate"
)

// TokenBytes is the number of random bytes in a generated token.
const TokenBytes = 32

// GenerateToken returns a hex-encoded random token of TokenBytes bytes.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken hashes token with bcrypt at cost. A cost of 0 uses bcrypt.DefaultCost.
func HashToken(token string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(h), nil
}

// PutUser inserts or replaces a user in the users file at path, creating the
// file if needed. It reports whether an existing entry was replaced.
func PutUser(path string, user r2gate.User) (bool, error) {
	if user.Username == "" {
		return false, fmt.Errorf("put user: empty username: %w", r2gate.ErrInvalidInput)
	}
	if user.TokenHash == "" {
		return false, fmt.Errorf("put user: empty token hash: %w", r2gate.ErrInvalidInput)
	}

	users, err := loadOrEmpty(path)
	if err != nil {
		return false, err
	}

	_, replaced := users[user.Username]
	users[user.Username] = user

	if err := SaveUsersToFile(path, users); err != nil {
		return false, err
	}
	return replaced, nil
}

// DeleteUser removes username from the users file at path.
// Returns ErrUserNotFound if the user is not present.
func DeleteUser(path, username string) error {
	users, err := loadOrEmpty(path)
	if err != nil {
		return err
	}

	if _, ok := users[username]; !ok {
		return fmt.Errorf("delete user %q: %w", username, ErrUserNotFound)
	}
	delete(users, username)

	return SaveUsersToFile(path, users)
}
