package repository

import "errors"

// Failure classes shared by the remote API client, the collection engine and the
// session store. Every remote failure matches exactly one of them via errors.Is.
var (
	// ErrNotFound is returned when a referenced entity doesn't exist on the server
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when the server rejects a payload
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized is returned for bad credentials or an expired/invalid token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned for transient connectivity failures
	ErrUnavailable = errors.New("remote API unavailable")
)
