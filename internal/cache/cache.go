package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable marks transport failures talking to the cache backend.
// Callers decide whether to fail the request; nothing is retried here.
var ErrUnavailable = errors.New("cache unavailable")

// Cache stores JSON records and pointer strings under derived keys with a
// sliding expiration: every successful read pushes the deadline out by the
// full window again. A missing or expired key reads as ok=false, never as an
// error.
type Cache interface {
	SetJSON(ctx context.Context, key Key, v any) error
	GetJSON(ctx context.Context, key Key, out any) (bool, error)
	SetString(ctx context.Context, key Key, value string) error
	GetString(ctx context.Context, key Key) (string, bool, error)
	Remove(ctx context.Context, key Key) error
	Close() error
}

// New creates a redis-backed cache when redisURL is set, otherwise in-memory.
func New(ctx context.Context, redisURL string, ttl time.Duration) (Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return NewInMemoryCache(ttl), nil
	}
	return NewRedisCache(ctx, redisURL, ttl)
}
