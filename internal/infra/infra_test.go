package infra

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on an empty cache reported a hit")
	}

	c.Set("quote:SPY", 430.5)
	v, ok := c.Get("quote:SPY")
	if !ok {
		t.Fatal("Set value not found")
	}
	if v.(float64) != 430.5 {
		t.Errorf("got %v, want 430.5", v)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	c.SetWithTTL("short", "gone soon", -time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry still served")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated key still present")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("unrelated key lost")
	}

	c.Flush()
	if _, ok := c.Get("b"); ok {
		t.Error("flushed key still present")
	}
}

func TestCacheCleanup(t *testing.T) {
	c := NewCache(time.Minute)
	c.SetWithTTL("stale", 1, -time.Second)
	c.Set("fresh", 2)

	c.Cleanup()

	c.mu.RLock()
	_, staleKept := c.entries["stale"]
	_, freshKept := c.entries["fresh"]
	c.mu.RUnlock()

	if staleKept {
		t.Error("Cleanup left the expired entry")
	}
	if !freshKept {
		t.Error("Cleanup removed the live entry")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute)
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			c.Set("key", i)
		}
		close(done)
	}()
	for i := 0; i < 1000; i++ {
		c.Get("key")
	}
	<-done
}
