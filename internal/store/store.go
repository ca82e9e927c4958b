package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been saved.
var ErrNotFound = errors.New("key not found")

// Store is a flat snapshot key-value store. Values are opaque JSON
// documents; a Put replaces the previous value (last write wins).
type Store interface {
	// Get returns the raw value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists stored keys that start with prefix, in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
