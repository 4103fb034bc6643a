//go:build load

// Package load contains load tests that are excluded from regular CI runs.
// Run with: go test -tags load -count=1 -timeout 60s ./tests/load/
package load

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/Karuna/internal/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/diagnosis", http.NoBody)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

// 10 goroutines x 100 requests from one IP against rate=10 burst=10. Nearly
// all of them land inside one refill window.
func TestRateLimitSustainedLoad(t *testing.T) {
	rl := middleware.NewRateLimiter(10, 10)
	handler := rl.Handler(okHandler())

	const goroutines = 10
	const reqsPerGoroutine = 100

	var ok, limited atomic.Int64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range reqsPerGoroutine {
				switch hit(handler, "10.0.0.1") {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusTooManyRequests:
					limited.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	total := ok.Load() + limited.Load()
	limitedPct := float64(limited.Load()) / float64(total) * 100
	t.Logf("total=%d ok=%d limited=%d (%.1f%% rejected)", total, ok.Load(), limited.Load(), limitedPct)

	if total != goroutines*reqsPerGoroutine {
		t.Errorf("total = %d, want %d", total, goroutines*reqsPerGoroutine)
	}
	if limitedPct < 80 {
		t.Errorf("expected >80%% rate-limited under sustained load, got %.1f%%", limitedPct)
	}
}

// A full bucket absorbs burst concurrent requests and rejects the next one.
func TestRateLimitBurstAbsorption(t *testing.T) {
	const burstSize = 50
	rl := middleware.NewRateLimiter(0.01, burstSize)
	handler := rl.Handler(okHandler())

	var ok atomic.Int64
	var wg sync.WaitGroup
	wg.Add(burstSize)
	for range burstSize {
		go func() {
			defer wg.Done()
			if hit(handler, "10.0.0.1") == http.StatusOK {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != burstSize {
		t.Errorf("expected all %d burst requests to succeed, got %d", burstSize, ok.Load())
	}
	if code := hit(handler, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("burst+1 request: expected 429, got %d", code)
	}
}

// One request each from 1000 unique IPs, concurrently; then idle clients are
// swept.
func TestRateLimitManyClients(t *testing.T) {
	const numIPs = 1000
	rl := middleware.NewRateLimiter(1, 1)
	handler := rl.Handler(okHandler())

	var ok atomic.Int64
	var wg sync.WaitGroup
	wg.Add(numIPs)
	for i := range numIPs {
		go func(idx int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.%d.%d.%d", idx/65536, (idx/256)%256, idx%256)
			if hit(handler, ip) == http.StatusOK {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if ok.Load() != numIPs {
		t.Errorf("expected all %d first requests to succeed, got %d", numIPs, ok.Load())
	}
	if rl.Len() != numIPs {
		t.Fatalf("expected %d clients, got %d", numIPs, rl.Len())
	}

	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl.StartCleanup(ctx, 5*time.Millisecond, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for rl.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rl.Len() != 0 {
		t.Errorf("expected 0 clients after cleanup, got %d", rl.Len())
	}
}
