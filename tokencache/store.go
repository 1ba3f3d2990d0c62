package tokencache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entry exists for a user key.
var ErrNotFound = errors.New("token cache entry not found")

// Store is durable, keyed persistence for opaque per-user token-cache blobs.
// There is exactly one entry per user key and writes are last-write-wins;
// a concurrent reader must never observe a partially written blob.
type Store interface {
	Put(ctx context.Context, userKey string, blob []byte) error
	Get(ctx context.Context, userKey string) ([]byte, error)
	Delete(ctx context.Context, userKey string) error
}
