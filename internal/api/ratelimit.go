// Per-client throttling for the mutating endpoints. Brush edits arrive in
// bursts while a user drags, so the edit budget is generous; regeneration
// rebuilds the whole world and gets a tight one.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// sweepThreshold bounds how many client entries accumulate before stale
// ones are dropped.
const sweepThreshold = 4096

// RateLimiter grants each client a fixed budget of requests per window.
// Windows are fixed rather than sliding: the budget refills all at once
// when a client's window rolls over.
type RateLimiter struct {
	mu     sync.Mutex
	seen   map[string]*clientWindow
	budget int
	window time.Duration
	now    func() time.Time // stubbed in tests
}

type clientWindow struct {
	used  int
	start time.Time
}

func NewRateLimiter(budget int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		seen:   make(map[string]*clientWindow),
		budget: budget,
		window: window,
		now:    time.Now,
	}
}

// Allow spends one unit of the client's budget. When the budget is spent it
// denies and reports the wait until the client's window rolls over.
func (rl *RateLimiter) Allow(client string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.seen) > sweepThreshold {
		rl.sweep(now)
	}

	w, exists := rl.seen[client]
	if !exists || now.Sub(w.start) >= rl.window {
		rl.seen[client] = &clientWindow{used: 1, start: now}
		return true, 0
	}
	if w.used < rl.budget {
		w.used++
		return true, 0
	}
	return false, rl.window - now.Sub(w.start)
}

// sweep drops clients whose window has long expired. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for client, w := range rl.seen {
		if now.Sub(w.start) >= 2*rl.window {
			delete(rl.seen, client)
		}
	}
}

// clientKey identifies the caller: the first X-Forwarded-For hop when
// present, otherwise the connection's remote address without its port.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimitMiddleware rejects over-budget requests with 429 and a
// Retry-After hint in whole seconds.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(clientKey(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait/time.Second)+1))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
