package adminapi

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/hokmgame/server/internal/ratelimit"
)

// remoteIP extracts the caller's address for rate-limit bucketing,
// preferring X-Forwarded-For (populated by a load balancer) and falling
// back to RemoteAddr for local/direct connections.
func remoteIP(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return ip
}

// RateLimiterMiddleware caps requests per caller IP against the admin/health
// surface, so a misconfigured load balancer's health-check storm can't
// starve the server's own goroutines the way an unbounded /readyz poll
// would.
type RateLimiterMiddleware struct {
	maxTokens    int64
	refillPerSec int64

	mu       sync.Mutex
	limiters map[string]ratelimit.Limiter
}

func NewRateLimiterMiddleware(maxTokens, refillPerSec int64) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		maxTokens:    maxTokens,
		refillPerSec: refillPerSec,
		limiters:     make(map[string]ratelimit.Limiter),
	}
}

func (m *RateLimiterMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := remoteIP(r)
		if key == "" {
			next(w, r)
			return
		}

		if !m.limiterFor(key).Allow(1) {
			slog.Debug("adminapi: rate limit exceeded", "remote_ip", key, "path", r.URL.Path)
			JSONError(w, NewTooManyRequests("rate limit exceeded"))
			return
		}
		next(w, r)
	}
}

func (m *RateLimiterMiddleware) limiterFor(key string) ratelimit.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[key]
	if !ok {
		l = ratelimit.NewTokenBucket(m.maxTokens, m.refillPerSec)
		m.limiters[key] = l
	}
	return l
}
