package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCache keeps ephemeral records in a shared redis instance so any server
// replica can resolve a session or repeat run.
type RedisCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := goredis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, string(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (c *RedisCache) GetJSON(ctx context.Context, key Key, out any) (bool, error) {
	// GETEX restarts the sliding window on every successful read.
	raw, err := c.client.GetEx(ctx, string(key), c.ttl).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode record at %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) SetString(ctx context.Context, key Key, value string) error {
	if err := c.client.Set(ctx, string(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (c *RedisCache) GetString(ctx context.Context, key Key) (string, bool, error) {
	value, err := c.client.GetEx(ctx, string(key), c.ttl).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return value, true, nil
}

func (c *RedisCache) Remove(ctx context.Context, key Key) error {
	if err := c.client.Del(ctx, string(key)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
