package api

import (
	"testing"
	"time"
)

func TestAuthLimiterBlocksAfterMax(t *testing.T) {
	limiter := newAuthLimiter(2, 200*time.Millisecond)
	ip := "203.0.113.10"

	if !limiter.Check(ip) {
		t.Fatalf("expected first check to pass")
	}
	limiter.Record(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected check after one failure to pass")
	}
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected check after two failures to be blocked")
	}
}

func TestAuthLimiterResetsAfterWindow(t *testing.T) {
	limiter := newAuthLimiter(1, 150*time.Millisecond)
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected check to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected check after window to pass")
	}
}

func TestAuthLimiterIsPerIP(t *testing.T) {
	limiter := newAuthLimiter(1, 200*time.Millisecond)

	limiter.Record("203.0.113.30")
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected second ip to pass independently")
	}
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked")
	}
}

func TestAuthLimiterNonPositiveWindow(t *testing.T) {
	for _, window := range []time.Duration{0, -time.Second} {
		limiter := newAuthLimiter(1, window)
		if limiter.window != defaultAuthFailureWindow {
			t.Fatalf("window %v: expected default window, got %v", window, limiter.window)
		}
		limiter.Record("203.0.113.40")
		if limiter.Check("203.0.113.40") {
			t.Fatalf("window %v: expected ip to be blocked", window)
		}
	}
}

func TestAuthLimiterSweepsStaleEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newAuthLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now

	limiter.Record("203.0.113.50")
	limiter.Record("203.0.113.51")
	if got := limiter.tracked(); got != 2 {
		t.Fatalf("expected 2 tracked ips, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	limiter.Record("203.0.113.52")
	if got := limiter.tracked(); got != 1 {
		t.Fatalf("expected stale ips to be swept, got %d tracked", got)
	}
}
