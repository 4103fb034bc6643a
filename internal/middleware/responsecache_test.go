package middleware_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Strob0t/Karuna/internal/adapter/memory"
	"github.com/Strob0t/Karuna/internal/middleware"
)

// countingHandler echoes the request body (or a fixed payload) and counts calls.
type countingHandler struct {
	calls  atomic.Int32
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(body) == 0 {
		body = []byte(`{"success":true}`)
	}
	_, _ = w.Write(body)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCacheGET_MissThenHit(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CacheGET(store)(next)

	first := serve(h, http.MethodGet, "/api/medicine?page=1", "")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}

	second := serve(h, http.MethodGet, "/api/medicine?page=1", "")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
	if second.Code != http.StatusOK {
		t.Errorf("status = %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body %q != %q", second.Body.String(), first.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("handler ran %d times, want 1", n)
	}

	keys := store.Keys()
	if len(keys) != 1 || keys[0] != `/api/medicine_{"page":["1"]}` {
		t.Fatalf("keys = %v", keys)
	}
}

func TestCacheGET_QueryOrderIrrelevant(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CacheGET(store)(next)

	serve(h, http.MethodGet, "/x?a=1&b=2", "")
	rec := serve(h, http.MethodGet, "/x?b=2&a=1", "")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Fatal("reordered query should hit the same entry")
	}
}

func TestCacheGET_DistinctQueries(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CacheGET(store)(next)

	serve(h, http.MethodGet, "/x?a=1", "")
	serve(h, http.MethodGet, "/x?a=2", "")
	serve(h, http.MethodGet, "/x", "")
	if n := next.calls.Load(); n != 3 {
		t.Fatalf("handler ran %d times, want 3", n)
	}
	if store.Len() != 3 {
		t.Fatalf("store has %d entries, want 3", store.Len())
	}
}

func TestCacheGET_NonSuccessNotCached(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadRequest} {
		store := memory.New()
		next := &countingHandler{status: status}
		h := middleware.CacheGET(store)(next)

		serve(h, http.MethodGet, "/x", "")
		rec := serve(h, http.MethodGet, "/x", "")
		if rec.Code != status {
			t.Errorf("status = %d, want %d", rec.Code, status)
		}
		if store.Len() != 0 {
			t.Errorf("%d response must not be cached", status)
		}
		if n := next.calls.Load(); n != 2 {
			t.Errorf("%d: handler ran %d times, want 2", status, n)
		}
	}
}

func TestCacheGET_PassesThroughOtherMethods(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CacheGET(store)(next)

	serve(h, http.MethodPost, "/x", `{"a":1}`)
	rec := serve(h, http.MethodPost, "/x", `{"a":1}`)
	if rec.Header().Get("X-Cache") != "" {
		t.Error("POST should not be touched by CacheGET")
	}
	if store.Len() != 0 {
		t.Error("nothing should be cached")
	}
}

func TestCachePOST_KeyedOnCompactBody(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CachePOST(store)(next)

	first := serve(h, http.MethodPost, "/api/medicine", `{ "prescription": ["Paracetamol"] }`)
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first X-Cache = %q", first.Header().Get("X-Cache"))
	}
	// The handler saw the original body.
	if first.Body.String() != `{ "prescription": ["Paracetamol"] }` {
		t.Fatalf("handler body = %q", first.Body.String())
	}

	second := serve(h, http.MethodPost, "/api/medicine", `{"prescription":["Paracetamol"]}`)
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("whitespace-only difference should hit, got %q", second.Header().Get("X-Cache"))
	}
	if n := next.calls.Load(); n != 1 {
		t.Fatalf("handler ran %d times, want 1", n)
	}

	keys := store.Keys()
	if len(keys) != 1 || keys[0] != `/api/medicine_{"prescription":["Paracetamol"]}` {
		t.Fatalf("keys = %v", keys)
	}

	serve(h, http.MethodPost, "/api/medicine", `{"prescription":["Cetirizine"]}`)
	if n := next.calls.Load(); n != 2 {
		t.Fatalf("different body should miss, handler ran %d times", n)
	}
}

func TestCachePOST_PutAndOtherMethods(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CachePOST(store)(next)

	serve(h, http.MethodPut, "/x", `{"a":1}`)
	if rec := serve(h, http.MethodPut, "/x", `{"a":1}`); rec.Header().Get("X-Cache") != "HIT" {
		t.Error("PUT should be cached")
	}

	serve(h, http.MethodDelete, "/x", "")
	if rec := serve(h, http.MethodGet, "/x", ""); rec.Header().Get("X-Cache") != "" {
		t.Error("GET should pass through CachePOST")
	}
}

func TestCachePOST_InvalidJSONBypasses(t *testing.T) {
	store := memory.New()
	next := &countingHandler{status: http.StatusBadRequest}
	h := middleware.CachePOST(store)(next)

	rec := serve(h, http.MethodPost, "/x", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != `{not json` {
		t.Fatalf("handler should still see the body, got %q", rec.Body.String())
	}
	if store.Len() != 0 {
		t.Fatal("nothing should be cached")
	}
}

func TestCachePOST_OversizedBodyBypasses(t *testing.T) {
	store := memory.New()
	next := &countingHandler{}
	h := middleware.CachePOST(store)(next)

	big := `{"k":"` + strings.Repeat("a", 1<<20) + `"}`
	rec := serve(h, http.MethodPost, "/x", big)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != len(big) {
		t.Fatalf("handler saw %d bytes, want %d", rec.Body.Len(), len(big))
	}
	if store.Len() != 0 {
		t.Fatal("oversized request must not be cached")
	}
}

type ctxKey struct{}

// tracingStore records the context of every contextual lookup.
type tracingStore struct {
	*memory.Store
	seen []any
}

func (s *tracingStore) GetContext(ctx context.Context, key string) (any, bool) {
	s.seen = append(s.seen, ctx.Value(ctxKey{}))
	return s.Get(key)
}

func TestCacheLookupsCarryRequestContext(t *testing.T) {
	store := &tracingStore{Store: memory.New()}
	next := &countingHandler{}

	tests := []struct {
		name   string
		h      http.Handler
		method string
		body   string
	}{
		{"get", middleware.CacheGET(store)(next), http.MethodGet, ""},
		{"post", middleware.CachePOST(store)(next), http.MethodPost, `{"prescription":["Paracetamol"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.seen = nil
			for range 2 {
				var rdr io.Reader = http.NoBody
				if tt.body != "" {
					rdr = strings.NewReader(tt.body)
				}
				req := httptest.NewRequest(tt.method, "/api/medicine", rdr)
				req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "req-1"))
				tt.h.ServeHTTP(httptest.NewRecorder(), req)
			}
			if len(store.seen) != 2 {
				t.Fatalf("contextual lookups = %d, want 2", len(store.seen))
			}
			for i, v := range store.seen {
				if v != "req-1" {
					t.Errorf("lookup %d saw context value %v, want req-1", i, v)
				}
			}
		})
	}
}
