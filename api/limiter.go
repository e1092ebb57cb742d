package api

import (
	"sync"
	"time"
)

const defaultAuthFailureWindow = 15 * time.Minute

// authLimiter rate-limits failed admin authentications per client IP.
// Stale entries are swept on Record at most once per window, so the limiter
// owns no goroutine.
type authLimiter struct {
	mu        sync.Mutex
	failures  map[string][]time.Time
	max       int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// newAuthLimiter creates an authLimiter that allows max failures per window.
// A non-positive window falls back to defaultAuthFailureWindow.
func newAuthLimiter(max int, window time.Duration) *authLimiter {
	if window <= 0 {
		window = defaultAuthFailureWindow
	}
	return &authLimiter{
		failures:  make(map[string][]time.Time),
		max:       max,
		window:    window,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Check returns true if the IP has not exceeded the failure limit.
// It does not record anything; call Record on failure.
func (l *authLimiter) Check(ip string) bool {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.failures[ip], cutoff)
	if len(kept) == 0 {
		delete(l.failures, ip)
	} else {
		l.failures[ip] = kept
	}
	return len(kept) < l.max
}

// Record registers a failed authentication for the given IP.
func (l *authLimiter) Record(ip string) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[ip] = append(l.failures[ip], now)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now.Add(-l.window))
		l.lastSweep = now
	}
}

// tracked returns the number of IPs with failures on record.
func (l *authLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

func (l *authLimiter) sweep(cutoff time.Time) {
	for ip, hits := range l.failures {
		if kept := prune(hits, cutoff); len(kept) == 0 {
			delete(l.failures, ip)
		} else {
			l.failures[ip] = kept
		}
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
