package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitMiddleware limits each client IP to a number of requests per
// sliding window.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// RateLimit applies the limit per client IP. A non-positive maxRequests
// disables it. Rejected requests get 429 with Retry-After.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, windowSeconds int) func(http.Handler) http.Handler {
	window := time.Duration(windowSeconds) * time.Second
	return func(next http.Handler) http.Handler {
		if maxRequests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := m.allow(getClientIP(r), maxRequests, window); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds()+0.999)))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow records a hit for clientIP. When the client is over the limit it
// reports how long until the oldest hit leaves the window.
func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) (time.Duration, bool) {
	now := m.now()
	cutoff := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep(now, cutoff, window)

	recent := m.hits[clientIP][:0]
	for _, t := range m.hits[clientIP] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= maxRequests {
		m.hits[clientIP] = recent
		return recent[0].Sub(cutoff), false
	}
	m.hits[clientIP] = append(recent, now)
	return 0, true
}

// sweep drops clients with no hit inside the window, at most once per
// window.
func (m *RateLimitMiddleware) sweep(now, cutoff time.Time, window time.Duration) {
	if now.Sub(m.lastSweep) < window {
		return
	}
	m.lastSweep = now
	for ip, hits := range m.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.hits, ip)
		}
	}
}

// clients is the number of IPs currently tracked.
func (m *RateLimitMiddleware) clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		first, _, _ := strings.Cut(ip, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}
