package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetThenGet(t *testing.T) {
	c := New(5*time.Minute, 10)
	c.Set("events_list", "payload")

	v, ok := c.Get("events_list")
	if !ok {
		t.Fatal("expected hit immediately after Set")
	}
	if v.(string) != "payload" {
		t.Fatalf("value = %v", v)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(5*time.Minute, 10)
	now := time.Now()
	c.nowFunc = func() time.Time { return now }

	c.Set("k", 1)

	now = now.Add(4 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired before TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(time.Minute, 10)
	c.Set("events_list", 1)
	c.Set("events_detail_3", 2)
	c.Set("guests_list", 3)

	c.InvalidatePrefix("events_")

	if _, ok := c.Get("events_list"); ok {
		t.Fatal("events_list should be gone")
	}
	if _, ok := c.Get("events_detail_3"); ok {
		t.Fatal("events_detail_3 should be gone")
	}
	if _, ok := c.Get("guests_list"); !ok {
		t.Fatal("guests_list should survive")
	}
}

func TestSizeCapEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(time.Minute, 3)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	// Touch k0 so k1 becomes the eviction candidate.
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("k0 missing")
	}

	c.Set("k3", 3)

	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("k1"); ok {
		t.Fatal("k1 should have been evicted as LRU")
	}
	if _, ok := c.Get("k0"); !ok {
		t.Fatal("recently used k0 should survive")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Fatal("new entry k3 missing")
	}
}

func TestSetRefreshesExistingEntry(t *testing.T) {
	c := New(5*time.Minute, 10)
	now := time.Now()
	c.nowFunc = func() time.Time { return now }

	c.Set("k", "old")
	now = now.Add(4 * time.Minute)
	c.Set("k", "new")
	now = now.Add(3 * time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("refreshed entry should still be fresh")
	}
	if v.(string) != "new" {
		t.Fatalf("value = %v, want new", v)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}
