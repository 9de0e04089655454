package cache

import (
	"context"
	"time"
)

// UIStateStore persists small per-client UI state blobs, such as the
// goods issue list filters and the last opened document. It mirrors the
// browser-side persistence the warehouse frontend relies on.
type UIStateStore interface {
	// Get returns the stored value for a key, or ("", nil) when absent
	Get(ctx context.Context, key string) (string, error)
	// Set stores a value under a key with a TTL
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes a key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
	// Close releases store resources
	Close() error
}
