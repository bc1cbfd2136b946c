// Package cache persists transcript snapshots keyed by session so a
// conversation is not empty on cold start. Snapshots are never
// authoritative; the first successful fetch supersedes them.
package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot exists for the key.
var ErrNotFound = errors.New("cache: snapshot not found")

// Store is a keyed blob store for transcript snapshots. Payloads are
// opaque to the store; the engine owns the encoding.
type Store interface {
	// Load returns the snapshot for the key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save writes or replaces the snapshot for the key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes the snapshot for the key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Close releases driver resources.
	Close() error
}
