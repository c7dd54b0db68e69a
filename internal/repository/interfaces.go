package repository

import "context"

// KeyValueStore is durable client-side storage for small string values, the
// equivalent of a browser's local storage.
type KeyValueStore interface {
	// Get returns the value under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes every listed key. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
