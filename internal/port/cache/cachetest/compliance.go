// Package cachetest provides a reusable test suite for cache.Store implementations.
package cachetest

import (
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/Strob0t/Karuna/internal/port/cache"
)

// RunComplianceTests runs the standard compliance test suite against a Store.
// newStore must return an empty store without a TTL.
func RunComplianceTests(t *testing.T, newStore func() cache.Store) {
	t.Helper()

	t.Run("SetAndGet", func(t *testing.T) {
		s := newStore()
		val := map[string]any{"name": "Dr. Rao", "rating": 4.5}
		s.Set("compliance-key", val)
		got, found := s.Get("compliance-key")
		if !found {
			t.Fatal("expected found after Set")
		}
		if !reflect.DeepEqual(got, val) {
			t.Fatalf("expected %v, got %v", val, got)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		s := newStore()
		if _, found := s.Get("nonexistent-key"); found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := newStore()
		s.Set("ow-key", "v1")
		s.Set("ow-key", "v2")
		got, found := s.Get("ow-key")
		if !found || got != "v2" {
			t.Fatalf("expected v2 after overwrite, got %v (found=%v)", got, found)
		}
		if s.Len() != 1 {
			t.Fatalf("overwrite must not add entries, len=%d", s.Len())
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore()
		s.Set("del-key", 1)
		if !s.Delete("del-key") {
			t.Fatal("first Delete should report removal")
		}
		if s.Delete("del-key") {
			t.Fatal("second Delete should report nothing removed")
		}
		if _, found := s.Get("del-key"); found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		s := newStore()
		if s.Delete("never-existed") {
			t.Fatal("Delete of nonexistent key should return false")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStore()
		s.Set("a", 1)
		s.Set("b", 2)
		s.Clear()
		if s.Len() != 0 {
			t.Fatalf("expected len 0 after Clear, got %d", s.Len())
		}
		if keys := s.Keys(); len(keys) != 0 {
			t.Fatalf("expected no keys after Clear, got %v", keys)
		}
	})

	t.Run("KeysSorted", func(t *testing.T) {
		s := newStore()
		s.Set("search_docs_rao", 1)
		s.Set("all_docs", 2)
		s.Set("all_hospitals", 3)
		want := []string{"all_docs", "all_hospitals", "search_docs_rao"}
		if got := s.Keys(); !reflect.DeepEqual(got, want) {
			t.Fatalf("Keys() = %v, want %v", got, want)
		}
		if s.Len() != len(want) {
			t.Fatalf("Len() = %d, want %d", s.Len(), len(want))
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		s := newStore()
		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := "k" + strconv.Itoa(i)
				for j := range 100 {
					s.Set(key, j)
					s.Get(key)
					s.Keys()
				}
			}()
		}
		wg.Wait()
		if s.Len() != 16 {
			t.Fatalf("expected 16 keys, got %d", s.Len())
		}
	})
}
