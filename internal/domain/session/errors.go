package session

import (
	"errors"

	"github.com/rpggio/taskdesk/internal/repository"
)

var (
	// ErrInvalidGrant indicates the server answered without a token or user.
	ErrInvalidGrant = errors.New("server returned an incomplete session")
	// ErrInvalidCredentials indicates blank login input.
	ErrInvalidCredentials = errors.New("email and password are required")
)

// AuthError is returned by Login and Register. It always matches
// repository.ErrUnauthorized and also matches the underlying cause, so a
// network failure during login is both an auth failure and ErrUnavailable.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return e.Op + " failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == repository.ErrUnauthorized
}
