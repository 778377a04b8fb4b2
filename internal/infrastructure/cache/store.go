package cache

import (
	"context"
	"time"
)

// Store is a string key-value store with per-key expiry
type Store interface {
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	// Get returns ok=false for missing or expired keys
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
