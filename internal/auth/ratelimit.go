package auth

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxTrackedAddresses bounds the limiter's memory. Addresses beyond the cap
// are evicted least-recently-used, which resets their window.
const maxTrackedAddresses = 4096

// attemptWindow holds the recorded attempt timestamps for one client address.
type attemptWindow struct {
	mu       sync.Mutex
	attempts []time.Time
}

// LoginLimiter throttles login attempts per client address over a sliding
// window. It is an injected component owned by the auth handler, not package
// state, so its lifecycle and memory bound are explicit.
type LoginLimiter struct {
	window      time.Duration
	maxAttempts int
	windows     *lru.Cache[string, *attemptWindow]
	now         func() time.Time
}

// NewLoginLimiter creates a limiter allowing maxAttempts per address within
// the given sliding window.
func NewLoginLimiter(window time.Duration, maxAttempts int) *LoginLimiter {
	cache, _ := lru.New[string, *attemptWindow](maxTrackedAddresses)
	return &LoginLimiter{
		window:      window,
		maxAttempts: maxAttempts,
		windows:     cache,
		now:         time.Now,
	}
}

// Allow reports whether a login attempt from addr may proceed. Attempts older
// than the window are pruned first. A rejected attempt is not recorded, so
// hammering a throttled address does not extend its window.
func (l *LoginLimiter) Allow(addr string) bool {
	w, ok := l.windows.Get(addr)
	if !ok {
		w = &attemptWindow{}
		// Another request may have added the window concurrently; keep the
		// stored one so both requests count against the same record.
		if prev, found, _ := l.windows.PeekOrAdd(addr, w); found {
			w = prev
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := w.attempts[:0]
	for _, t := range w.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.attempts = kept

	if len(w.attempts) >= l.maxAttempts {
		return false
	}
	w.attempts = append(w.attempts, now)
	return true
}

// Remaining returns how many attempts addr has left in the current window.
func (l *LoginLimiter) Remaining(addr string) int {
	w, ok := l.windows.Get(addr)
	if !ok {
		return l.maxAttempts
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := l.now().Add(-l.window)
	n := 0
	for _, t := range w.attempts {
		if t.After(cutoff) {
			n++
		}
	}
	if n >= l.maxAttempts {
		return 0
	}
	return l.maxAttempts - n
}
