package httpx

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	const limit = 5
	window := 50 * time.Millisecond

	for i := 1; i <= limit; i++ {
		decision := limiter.Allow("/register|ip:10.0.0.1", limit, window)
		if !decision.allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if decision.count != i {
			t.Fatalf("request %d: count = %d", i, decision.count)
		}
	}

	decision := limiter.Allow("/register|ip:10.0.0.1", limit, window)
	if decision.allowed {
		t.Fatal("expected denial once limit is reached")
	}
	if decision.windowEnd.IsZero() {
		t.Fatal("denial should carry the window end for Retry-After math")
	}

	// A different key or route keeps its own counter.
	if !limiter.Allow("/register|ip:10.0.0.2", limit, window).allowed {
		t.Fatal("other caller should not share the window")
	}
	if !limiter.Allow("/auth/login|ip:10.0.0.1", limit, window).allowed {
		t.Fatal("other route should not share the window")
	}

	time.Sleep(window + 20*time.Millisecond)
	if !limiter.Allow("/register|ip:10.0.0.1", limit, window).allowed {
		t.Fatal("expected a fresh window after expiry")
	}
}

func TestMemoryRateLimiterZeroLimit(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	for i := 0; i < 50; i++ {
		if !limiter.Allow("key", 0, time.Minute).allowed {
			t.Fatal("zero limit disables limiting")
		}
	}
}

func TestRateLimitKeyIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/register", nil)
	req.RemoteAddr = "10.0.0.5:43210"
	if got := rateLimitKeyIP(req); got != "ip:10.0.0.5" {
		t.Fatalf("expected ip:10.0.0.5, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")
	if got := rateLimitKeyIP(req); got != "ip:203.0.113.9" {
		t.Fatalf("expected forwarded client, got %q", got)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", false},
		{"bearer abc.def.ghi", "abc.def.ghi", false},
		{"", "", true},
		{"Basic dXNlcg==", "", true},
		{"Bearer", "", true},
		{"Bearer a b", "", true},
	}
	for _, tc := range cases {
		got, err := bearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: unexpected error %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}
