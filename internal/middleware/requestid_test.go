package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Strob0t/Karuna/internal/logger"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"absent", "", false},
		{"client supplied", "req-7f3a9c", true},
		{"uuid supplied", "0b6f1c52-7d0e-4f0b-9d1a-3c2e8f6a4b10", true},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false},
		{"max length", strings.Repeat("x", maxRequestIDLen), true},
		{"contains space", "abc def", false},
		{"contains newline", "abc\ndef", false},
		{"non ascii", "reqé", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inCtx string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				inCtx = logger.RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/data/docs", http.NoBody)
			if tt.header != "" {
				req.Header.Set(headerRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(headerRequestID)
			if got != inCtx {
				t.Errorf("response id %q != context id %q", got, inCtx)
			}
			if tt.keep {
				if got != tt.header {
					t.Errorf("id = %q, want client value %q", got, tt.header)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("expected a generated UUID, got %q", got)
			}
		})
	}
}
