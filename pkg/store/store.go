// Package store provides the durable key/value medium shared by the
// cache and the bookmark set. A store is created with a namespace
// prefix and injected explicitly; the cache and the bookmark store
// each hold their own handle under disjoint key namespaces.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a namespaced durable key/value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan returns all keys starting with prefix, in unspecified order.
	Scan(ctx context.Context, prefix string) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}
