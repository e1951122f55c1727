// Package ratelimit protects a single connection from flooding the
// per-room message queue. It is a connection-level concern, distinct from
// the RoomCoordinator's own queue-capacity overload protection.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the interface internal/adminapi's rate-limit middleware
// depends on; the hub holds a *TokenBucket directly.
type Limiter interface {
	Allow(cost int) bool
}

// TokenBucket must always be used by pointer: it embeds a sync.Mutex and
// cannot be safely copied.
type TokenBucket struct {
	maxTokens     int64
	refillPerSec  int64
	lastRefillNs  int64
	currentTokens float64
	mu            sync.Mutex
}

// NewTokenBucket returns a bucket starting full, refilling at refillPerSec
// tokens per second up to maxTokens.
func NewTokenBucket(maxTokens, refillPerSec int64) *TokenBucket {
	return &TokenBucket{
		maxTokens:     maxTokens,
		refillPerSec:  refillPerSec,
		currentTokens: float64(maxTokens),
		lastRefillNs:  time.Now().UnixNano(),
	}
}

func (b *TokenBucket) Allow(cost int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()

	c := float64(cost)
	if b.currentTokens >= c {
		b.currentTokens -= c
		return true
	}
	return false
}

func (b *TokenBucket) refill() {
	now := time.Now().UnixNano()
	elapsedSec := float64(now-b.lastRefillNs) / 1e9
	toAdd := elapsedSec * float64(b.refillPerSec)
	if toAdd < 1.0 {
		return
	}
	b.currentTokens = min(b.currentTokens+toAdd, float64(b.maxTokens))
	b.lastRefillNs = now
}
