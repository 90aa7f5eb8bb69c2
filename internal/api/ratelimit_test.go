package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := newTokenBucket(3, 0)
	for i := 0; i < 3; i++ {
		if !tb.allow() {
			t.Fatalf("request %d denied within capacity", i)
		}
	}
	if tb.allow() {
		t.Error("request allowed beyond capacity with no refill")
	}
	if got := tb.remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := newTokenBucket(2, 1)
	tb.allow()
	tb.allow()

	tb.mu.Lock()
	tb.refill(tb.lastRefillTime.Add(1500 * time.Millisecond))
	tokens := tb.tokens
	tb.mu.Unlock()
	if tokens < 1.5 || tokens > 1.6 {
		t.Errorf("tokens after 1.5s = %v, want about 1.5", tokens)
	}

	tb.mu.Lock()
	tb.refill(tb.lastRefillTime.Add(time.Hour))
	tokens = tb.tokens
	tb.mu.Unlock()
	if tokens != 2 {
		t.Errorf("tokens = %v, want capped at capacity 2", tokens)
	}

	if reset := tb.reset(); time.Until(reset) > time.Second {
		t.Errorf("full bucket reset %v is in the future", reset)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 1})
	defer rl.Close()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("second request from same IP allowed past burst")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP shares a bucket")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10})
	defer rl.Close()
	if rl.config.BurstSize != 10 {
		t.Errorf("default burst = %d, want 10", rl.config.BurstSize)
	}
}

func TestRateLimiterEvictIdle(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 5})
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.evictIdle(time.Now())
	if len(rl.buckets) != 2 {
		t.Fatalf("fresh buckets evicted: %d left", len(rl.buckets))
	}

	rl.evictIdle(time.Now().Add(rl.cleanupTTL + time.Second))
	if len(rl.buckets) != 0 {
		t.Errorf("idle buckets kept: %d left", len(rl.buckets))
	}
}

func TestRateLimiterCloseTwice(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60})
	rl.Close()
	rl.Close()
}

func TestRateLimiterMiddlewareHeaders(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 30, BurstSize: 1})
	defer rl.Close()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/convert", nil)
	req.RemoteAddr = "192.0.2.7:4000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "30" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", "", "", "192.0.2.1"},
		{"forwarded leftmost", "10.0.0.1:1", "203.0.113.5, 10.0.0.2", "", "203.0.113.5"},
		{"invalid forwarded falls back", "10.0.0.1:1", "not-an-ip", "198.51.100.9", "198.51.100.9"},
		{"real ip", "10.0.0.1:1", "", "198.51.100.9", "198.51.100.9"},
		{"ipv6 remote", "[2001:db8::1]:80", "", "", "2001:db8::1"},
		{"no port", "192.0.2.3", "", "", "192.0.2.3"},
		{"garbage", "nonsense", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
