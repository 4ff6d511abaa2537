package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal KV API storing raw bytes with optional TTL.
// A ttl of zero or less means the value never expires.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// MGetBytes returns the values that exist; missing keys are absent from
	// the result, not an error.
	MGetBytes(ctx context.Context, keys ...string) (map[string][]byte, error)
}
