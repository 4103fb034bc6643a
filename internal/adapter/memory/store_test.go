package memory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/Karuna/internal/adapter/memory"
	"github.com/Strob0t/Karuna/internal/port/cache"
	"github.com/Strob0t/Karuna/internal/port/cache/cachetest"
)

var _ cache.Store = (*memory.Store)(nil)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStoreCompliance(t *testing.T) {
	cachetest.RunComplianceTests(t, func() cache.Store { return memory.New() })
}

func TestStoreDoctorListingRoundTrip(t *testing.T) {
	type doctor struct{ Name string }
	s := memory.New()

	s.Set("all_docs", []doctor{{Name: "Dr. A"}})

	v, ok := s.Get("all_docs")
	if !ok {
		t.Fatal("all_docs missing after Set")
	}
	docs, ok := v.([]doctor)
	if !ok || len(docs) != 1 || docs[0].Name != "Dr. A" {
		t.Fatalf("Get(all_docs) = %#v", v)
	}

	if !s.Delete("all_docs") {
		t.Fatal("Delete(all_docs) = false, want true")
	}
	if _, ok := s.Get("all_docs"); ok {
		t.Fatal("all_docs still present after Delete")
	}
	if s.Delete("all_docs") {
		t.Error("second Delete(all_docs) = true, want false")
	}
}

func TestStoreNoTTLNeverExpires(t *testing.T) {
	clk := newFakeClock()
	s := memory.New(memory.WithClock(clk.Now))

	s.Set("all_docs", []string{"a"})
	clk.Advance(365 * 24 * time.Hour)

	if _, ok := s.Get("all_docs"); !ok {
		t.Fatal("entry without TTL should never expire")
	}
}

func TestStoreTTLLazyExpiry(t *testing.T) {
	clk := newFakeClock()
	s := memory.New(memory.WithTTL(time.Minute), memory.WithClock(clk.Now))

	s.Set("k", "v")
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	clk.Advance(time.Minute)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry exactly at TTL should still be served")
	}

	clk.Advance(time.Second)
	// Expired but not accessed: still counted.
	if s.Len() != 1 {
		t.Fatalf("Len() before access = %d, want 1", s.Len())
	}
	if _, ok := s.Get("k"); ok {
		t.Fatal("expected miss after TTL")
	}
	if s.Len() != 0 {
		t.Fatalf("expired entry should be evicted on access, Len() = %d", s.Len())
	}
}

func TestStoreSetRefreshesAge(t *testing.T) {
	clk := newFakeClock()
	s := memory.New(memory.WithTTL(time.Minute), memory.WithClock(clk.Now))

	s.Set("k", 1)
	clk.Advance(50 * time.Second)
	s.Set("k", 2)
	clk.Advance(50 * time.Second)

	got, ok := s.Get("k")
	if !ok || got != 2 {
		t.Fatalf("Get() = %v, %v; want 2, true", got, ok)
	}
}

func TestStorePurgeExpired(t *testing.T) {
	clk := newFakeClock()
	s := memory.New(memory.WithTTL(time.Minute), memory.WithClock(clk.Now))

	s.Set("old-1", 1)
	s.Set("old-2", 2)
	clk.Advance(2 * time.Minute)
	s.Set("fresh", 3)

	if n := s.PurgeExpired(); n != 2 {
		t.Fatalf("PurgeExpired() = %d, want 2", n)
	}
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != "fresh" {
		t.Fatalf("Keys() = %v, want [fresh]", keys)
	}
}

func TestStorePurgeWithoutTTL(t *testing.T) {
	s := memory.New()
	s.Set("k", 1)
	if n := s.PurgeExpired(); n != 0 {
		t.Fatalf("PurgeExpired() without TTL = %d, want 0", n)
	}
	if s.TTL() != 0 {
		t.Fatalf("TTL() = %v, want 0", s.TTL())
	}
}
