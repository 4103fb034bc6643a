// Package service implements business logic on top of ports.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	cfotel "github.com/Strob0t/Karuna/internal/adapter/otel"
	"github.com/Strob0t/Karuna/internal/port/cache"
)

// CacheStats is the snapshot returned by the stats endpoint.
type CacheStats struct {
	TotalKeys int      `json:"totalKeys"`
	Keys      []string `json:"keys"`
}

// CacheService fronts the process-wide response cache. It implements
// cache.Store so the HTTP middleware can use it directly; deletions made
// through it are broadcast to other instances when a publisher is set.
type CacheService struct {
	store     cache.Store
	publisher cache.Publisher
	origin    string
	metrics   *cfotel.Metrics
	log       *slog.Logger
}

var _ cache.Store = (*CacheService)(nil)

// NewCacheService creates a CacheService over store.
func NewCacheService(store cache.Store, log *slog.Logger) *CacheService {
	if log == nil {
		log = slog.Default()
	}
	return &CacheService{store: store, log: log}
}

// SetPublisher enables invalidation broadcasts. origin identifies this
// instance so its own broadcasts can be ignored on receipt.
func (s *CacheService) SetPublisher(p cache.Publisher, origin string) {
	s.publisher = p
	s.origin = origin
}

// Origin returns the instance id used for broadcasts.
func (s *CacheService) Origin() string {
	return s.origin
}

// SetMetrics attaches optional hit/miss metrics.
func (s *CacheService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// GetOrFetch returns the cached value for key, or calls fetch, caches its
// result and returns it. A fetch error is returned and nothing is cached.
// Concurrent misses on the same key each call fetch. A cached value of
// another type is treated as a miss and replaced.
func GetOrFetch[T any](ctx context.Context, s *CacheService, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := s.store.Get(key); ok {
		if typed, ok := v.(T); ok {
			s.metrics.RecordLookup(ctx, cfotel.LayerHelper, true)
			s.log.DebugContext(ctx, "cache hit", "key", key)
			return typed, nil
		}
		s.log.WarnContext(ctx, "cached value has unexpected type, refetching", "key", key)
	}
	s.metrics.RecordLookup(ctx, cfotel.LayerHelper, false)

	fillCtx, span := cfotel.StartCacheFillSpan(ctx, key)
	start := time.Now()
	val, err := fetch(fillCtx)
	s.metrics.RecordFill(ctx, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.End()
		var zero T
		return zero, err
	}
	span.End()

	s.store.Set(key, val)
	s.log.DebugContext(ctx, "cache filled", "key", key)
	return val, nil
}

// Get looks up a response payload.
func (s *CacheService) Get(key string) (any, bool) {
	return s.GetContext(context.Background(), key)
}

// GetContext looks up a response payload and records the lookup against
// ctx, so the data point carries the request's trace.
func (s *CacheService) GetContext(ctx context.Context, key string) (any, bool) {
	v, ok := s.store.Get(key)
	s.metrics.RecordLookup(ctx, cfotel.LayerResponse, ok)
	return v, ok
}

// Set stores a response payload. Writes stay local to this instance.
func (s *CacheService) Set(key string, value any) {
	s.store.Set(key, value)
}

// Delete removes one key and broadcasts the deletion.
func (s *CacheService) Delete(key string) bool {
	return s.DeleteKey(context.Background(), key)
}

// Clear removes every key and broadcasts the clear.
func (s *CacheService) Clear() {
	s.ClearAll(context.Background())
}

// Keys returns a sorted snapshot of the cached keys.
func (s *CacheService) Keys() []string {
	return s.store.Keys()
}

// Len returns the number of cached entries.
func (s *CacheService) Len() int {
	return s.store.Len()
}

// DeleteKey removes key and reports whether it existed.
func (s *CacheService) DeleteKey(ctx context.Context, key string) bool {
	removed := s.store.Delete(key)
	s.broadcast(ctx, cache.Invalidation{Op: cache.OpDelete, Key: key})
	return removed
}

// Invalidate removes a key, or every key containing the pattern when it has
// a '*' (the asterisks are stripped before matching). It reports whether
// anything was removed.
func (s *CacheService) Invalidate(ctx context.Context, keyOrPattern string) bool {
	if !strings.Contains(keyOrPattern, "*") {
		return s.DeleteKey(ctx, keyOrPattern)
	}
	removed := invalidatePattern(s.store, keyOrPattern)
	s.broadcast(ctx, cache.Invalidation{Op: cache.OpPattern, Key: keyOrPattern})
	return removed > 0
}

// ClearAll removes every cached entry.
func (s *CacheService) ClearAll(ctx context.Context) {
	s.store.Clear()
	s.broadcast(ctx, cache.Invalidation{Op: cache.OpClear})
	s.log.InfoContext(ctx, "cache cleared")
}

// Stats returns the key count and sorted key list.
func (s *CacheService) Stats() CacheStats {
	keys := s.store.Keys()
	return CacheStats{TotalKeys: len(keys), Keys: keys}
}

// ApplyRemote mirrors an invalidation received from another instance.
// Invalidations that originated here are ignored, and nothing is re-broadcast.
func (s *CacheService) ApplyRemote(inv cache.Invalidation) {
	if s.origin != "" && inv.Origin == s.origin {
		return
	}
	switch inv.Op {
	case cache.OpDelete:
		s.store.Delete(inv.Key)
	case cache.OpPattern:
		invalidatePattern(s.store, inv.Key)
	case cache.OpClear:
		s.store.Clear()
	default:
		s.log.Warn("unknown cache invalidation op", "op", inv.Op, "origin", inv.Origin)
		return
	}
	s.log.Debug("applied remote invalidation", "op", inv.Op, "key", inv.Key, "origin", inv.Origin)
}

func (s *CacheService) broadcast(ctx context.Context, inv cache.Invalidation) {
	if s.publisher == nil {
		return
	}
	inv.Origin = s.origin
	if err := s.publisher.Publish(ctx, inv); err != nil {
		s.log.WarnContext(ctx, "cache invalidation broadcast failed", "op", inv.Op, "error", err)
	}
}

func invalidatePattern(store cache.Store, pattern string) int {
	needle := strings.ReplaceAll(pattern, "*", "")
	n := 0
	for _, k := range store.Keys() {
		if strings.Contains(k, needle) && store.Delete(k) {
			n++
		}
	}
	return n
}
