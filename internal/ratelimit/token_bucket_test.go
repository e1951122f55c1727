package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllowsUpToCapacity(t *testing.T) {
	b := NewTokenBucket(5, 1)
	for i := 0; i < 5; i++ {
		assert.True(t, b.Allow(1), "token %d should be allowed", i)
	}
	assert.False(t, b.Allow(1), "bucket should be empty after draining capacity")
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	b := NewTokenBucket(5, 100)
	for i := 0; i < 5; i++ {
		assert.True(t, b.Allow(1))
	}
	assert.False(t, b.Allow(1))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow(1), "bucket should have refilled after waiting")
}

func TestTokenBucketRejectsCostAboveCapacity(t *testing.T) {
	b := NewTokenBucket(3, 1)
	assert.False(t, b.Allow(4))
}
