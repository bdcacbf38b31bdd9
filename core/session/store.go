package session

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry expiry.
//
// Operations on one key are serialized, so concurrent requests sharing a
// session never lose updates. An expired entry behaves exactly like an
// absent one, whether or not a sweep has removed it yet. A ttl that is not
// positive selects the store's default TTL.
type Store[V any] interface {
	// Add stores value under key, replacing any previous value.
	Add(ctx context.Context, key string, value V, ttl time.Duration) error
	// Get returns the value under key, or def when it is absent or expired.
	Get(ctx context.Context, key string, def V) (V, error)
	// Update atomically replaces the value under key with fn's result.
	// fn receives the current value and whether it exists. If fn fails the
	// entry is left unchanged. A ttl that is not positive keeps the current
	// expiry of an existing entry.
	Update(ctx context.Context, key string, ttl time.Duration, fn func(current V, ok bool) (V, error)) (V, error)
	// Remove deletes key and reports whether a live entry existed.
	Remove(ctx context.Context, key string) (bool, error)
	// All returns a snapshot of every live entry.
	All(ctx context.Context) (map[string]V, error)
}

// Stats describes a store for monitoring.
type Stats struct {
	Active    int
	Added     int64
	Expired   int64
	Removed   int64
	IsRunning bool
}
