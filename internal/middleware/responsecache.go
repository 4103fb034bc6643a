package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Strob0t/Karuna/internal/port/cache"
)

const (
	headerCache       = "X-Cache"
	maxCachedBodySize = 1 << 20 // 1 MiB
)

// CachedResponse is a replayable handler response.
type CachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// CacheGET serves GET requests from store, keyed by path and query. Other
// methods pass through.
func CacheGET(store cache.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			// encoding/json sorts map keys, so parameter order does not matter.
			query, err := json.Marshal(r.URL.Query())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			serveCached(store, r.URL.Path+"_"+string(query), w, r, next)
		})
	}
}

// CachePOST serves POST and PUT requests from store, keyed by path and the
// compacted JSON body. The body is restored for the handler. Bodies over
// 1 MiB or that are not valid JSON bypass the cache.
func CachePOST(store cache.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			orig := r.Body
			body, err := io.ReadAll(io.LimitReader(orig, maxCachedBodySize+1))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"failed to read request body"}`))
				return
			}
			if len(body) > maxCachedBodySize {
				r.Body = readCloser{io.MultiReader(bytes.NewReader(body), orig), orig}
				next.ServeHTTP(w, r)
				return
			}
			r.Body = readCloser{bytes.NewReader(body), orig}

			var compact bytes.Buffer
			if len(body) > 0 {
				if err := json.Compact(&compact, body); err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			serveCached(store, r.URL.Path+"_"+compact.String(), w, r, next)
		})
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// contextGetter is implemented by stores that attribute lookups to the
// request, such as service.CacheService.
type contextGetter interface {
	GetContext(ctx context.Context, key string) (any, bool)
}

func lookup(ctx context.Context, store cache.Store, key string) (any, bool) {
	if cg, ok := store.(contextGetter); ok {
		return cg.GetContext(ctx, key)
	}
	return store.Get(key)
}

func serveCached(store cache.Store, key string, w http.ResponseWriter, r *http.Request, next http.Handler) {
	if v, ok := lookup(r.Context(), store, key); ok {
		if cached, ok := v.(CachedResponse); ok {
			if cached.ContentType != "" {
				w.Header().Set("Content-Type", cached.ContentType)
			}
			w.Header().Set(headerCache, "HIT")
			w.WriteHeader(cached.Status)
			_, _ = w.Write(cached.Body)
			return
		}
		slog.WarnContext(r.Context(), "response cache: unexpected entry type", "key", key)
	}

	w.Header().Set(headerCache, "MISS")
	rec := &responseRecorder{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
	next.ServeHTTP(rec, r)

	if rec.statusCode < 200 || rec.statusCode > 299 || rec.overflow {
		return
	}
	store.Set(key, CachedResponse{
		Status:      rec.statusCode,
		ContentType: w.Header().Get("Content-Type"),
		Body:        bytes.Clone(rec.body.Bytes()),
	})
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        *bytes.Buffer
	overflow    bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if !r.overflow {
		if r.body.Len()+len(b) > maxCachedBodySize {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
