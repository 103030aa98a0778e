package port

import (
	"context"
	"time"
)

// Cache is the key-value contract used for conversation state and inbound
// de-duplication. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns ErrMiss when key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value with ttl; ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetIfAbsent stores value only when key does not exist and reports
	// whether it did.
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	Del(ctx context.Context, keys ...string) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss signals a cache miss in a typed way.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
