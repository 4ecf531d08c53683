package cache

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryAbsenceIsNotAnError(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Minute)

	var out map[string]any
	ok, err := c.GetJSON(ctx, SessionIDKey("nope"), &out)
	if err != nil {
		t.Fatalf("GetJSON(absent) error = %v", err)
	}
	if ok {
		t.Fatalf("GetJSON(absent) ok = true, want false")
	}

	if err := c.Remove(ctx, SessionIDKey("nope")); err != nil {
		t.Fatalf("Remove(absent) error = %v", err)
	}
}

func TestInMemoryRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(time.Minute)
	key := RepeatStateKey("k1")

	type record struct {
		Count int `json:"count"`
	}
	if err := c.SetJSON(ctx, key, record{Count: 1}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	if err := c.SetJSON(ctx, key, record{Count: 2}); err != nil {
		t.Fatalf("SetJSON() overwrite error = %v", err)
	}

	var got record
	ok, err := c.GetJSON(ctx, key, &got)
	if err != nil || !ok {
		t.Fatalf("GetJSON() = (%v, %v), want (true, nil)", ok, err)
	}
	if got.Count != 2 {
		t.Fatalf("Count = %d, want 2 (overwrite)", got.Count)
	}
}

func TestInMemorySlidingExpirationRefreshesOnRead(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(50 * time.Millisecond)
	key := SessionOwnerKey("acc-1")

	if err := c.SetString(ctx, key, "sess-1"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	// Keep reading inside the window; the deadline should keep moving.
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		_, ok, err := c.GetString(ctx, key)
		if err != nil {
			t.Fatalf("GetString() error = %v", err)
		}
		if !ok {
			t.Fatalf("key expired at read %d despite refreshes", i+1)
		}
	}

	// Let the full window lapse without reads.
	time.Sleep(80 * time.Millisecond)
	_, ok, err := c.GetString(ctx, key)
	if err != nil {
		t.Fatalf("GetString() after lapse error = %v", err)
	}
	if ok {
		t.Fatalf("key still present after TTL lapse")
	}
}

func TestKeyFamiliesAreDisjoint(t *testing.T) {
	id := "same-identifier"
	keys := []Key{
		SessionTokenKey(id),
		SessionIDKey(id),
		SessionOwnerKey(id),
		RepeatStateKey(id),
	}
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("key %q produced by two families", k)
		}
		seen[k] = true
	}
	if RepeatOwnerKey(42) == RepeatStateKey("42") {
		t.Fatalf("repeat pointer and state keys collide")
	}
}
