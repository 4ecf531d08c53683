package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// InMemoryCache is a single-process stand-in for redis, used for local/dev
// runs and tests. It honors the same sliding-expiration contract.
type InMemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]*entry
}

type entry struct {
	raw      []byte
	deadline time.Time
}

func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryCache{ttl: ttl, entries: make(map[Key]*entry)}
}

func (c *InMemoryCache) SetJSON(_ context.Context, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record for %s: %w", key, err)
	}
	c.put(key, raw)
	return nil
}

func (c *InMemoryCache) GetJSON(_ context.Context, key Key, out any) (bool, error) {
	raw, ok := c.fetch(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode record at %s: %w", key, err)
	}
	return true, nil
}

func (c *InMemoryCache) SetString(_ context.Context, key Key, value string) error {
	c.put(key, []byte(value))
	return nil
}

func (c *InMemoryCache) GetString(_ context.Context, key Key) (string, bool, error) {
	raw, ok := c.fetch(key)
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (c *InMemoryCache) Remove(_ context.Context, key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *InMemoryCache) Close() error {
	return nil
}

func (c *InMemoryCache) put(key Key, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{raw: raw, deadline: time.Now().Add(c.ttl)}
}

func (c *InMemoryCache) fetch(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.deadline) {
		delete(c.entries, key)
		return nil, false
	}
	// Successful reads restart the sliding window, like redis GETEX.
	e.deadline = time.Now().Add(c.ttl)
	return e.raw, true
}

var _ Cache = (*InMemoryCache)(nil)
