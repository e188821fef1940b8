package middlewares

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/urfave/negroni"
)

// RateLimiter is an in-memory limiter keyed by client IP over a rolling
// window. Requests past the budget get 429.
type RateLimiter struct {
	mu          sync.Mutex
	counts      map[string][]time.Time
	lastSweep   time.Time
	MaxRequests int
	Window      time.Duration
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts:      make(map[string][]time.Time),
		lastSweep:   time.Now(),
		MaxRequests: maxRequests,
		Window:      window,
	}
}

func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.Window)

	if now.Sub(rl.lastSweep) > rl.Window {
		rl.sweep(windowStart)
		rl.lastSweep = now
	}

	var kept []time.Time
	for _, t := range rl.counts[clientIP] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	rl.counts[clientIP] = kept

	return len(kept) <= rl.MaxRequests
}

// sweep drops clients whose whole history fell out of the window, so idle IPs
// do not accumulate. Caller holds the lock.
func (rl *RateLimiter) sweep(windowStart time.Time) {
	for ip, times := range rl.counts {
		active := false
		for _, t := range times {
			if t.After(windowStart) {
				active = true
				break
			}
		}
		if !active {
			delete(rl.counts, ip)
		}
	}
}

// ActiveClients reports how many client IPs currently hold request history.
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return len(rl.counts)
}

func (rl *RateLimiter) Middleware() negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
			if idx := strings.LastIndex(clientIP, ":"); idx != -1 {
				clientIP = clientIP[:idx]
			}
		}

		if !rl.Allow(clientIP) {
			a := &ResponseWriter{Writer: rw}
			a.Error(http.StatusTooManyRequests, "too many requests", WithErrorScope("rate_limit"))
			return
		}

		next(rw, r)
	})
}
