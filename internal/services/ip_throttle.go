package services

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

type throttleEntry struct {
	failures     int
	firstAttempt time.Time
}

// IPThrottle is the in-process login filter keyed by source address. An
// address is blocked once it reaches maxAttempts failures inside a window
// that starts at its first failure; the entry clears when the window ends.
type IPThrottle struct {
	mu          sync.Mutex
	entries     map[string]*throttleEntry
	maxAttempts int
	window      time.Duration
	clock       clock.Clock
}

func NewIPThrottle(maxAttempts int, window time.Duration, clk clock.Clock) *IPThrottle {
	if clk == nil {
		clk = clock.WallClock
	}
	return &IPThrottle{
		entries:     make(map[string]*throttleEntry),
		maxAttempts: maxAttempts,
		window:      window,
		clock:       clk,
	}
}

// expired must be called with mu held.
func (t *IPThrottle) expired(e *throttleEntry, now time.Time) bool {
	return now.Sub(e.firstAttempt) >= t.window
}

// Allow reports whether ip may attempt to authenticate.
func (t *IPThrottle) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ip]
	if !ok {
		return true
	}
	if t.expired(e, t.clock.Now()) {
		delete(t.entries, ip)
		return true
	}
	return e.failures < t.maxAttempts
}

// RegisterFailure counts a failed attempt, opening a new window when none
// is running for ip.
func (t *IPThrottle) RegisterFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	e, ok := t.entries[ip]
	if !ok || t.expired(e, now) {
		t.entries[ip] = &throttleEntry{failures: 1, firstAttempt: now}
		return
	}
	e.failures++
}

// Reset forgets ip.
func (t *IPThrottle) Reset(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, ip)
}

// Failures returns the failures counted in the running window for ip.
func (t *IPThrottle) Failures(ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[ip]
	if !ok || t.expired(e, t.clock.Now()) {
		return 0
	}
	return e.failures
}

// Sweep drops entries whose window has ended and returns how many it removed.
func (t *IPThrottle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	removed := 0
	for ip, e := range t.entries {
		if t.expired(e, now) {
			delete(t.entries, ip)
			removed++
		}
	}
	return removed
}
