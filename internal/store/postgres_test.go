package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsWithoutRetryingOnFirstSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryExhaustsAttemptsAndWrapsCause(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	start := time.Now()
	err := withRetry(context.Background(), 3, func() error {
		calls++
		return boom
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, boom, unavailable.Cause)
	assert.Equal(t, 3, calls)
	// 100ms + 200ms backoff between the three attempts.
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
}

func TestWithRetrySucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, 3, func() error {
		calls++
		return errors.New("down")
	})
	require.Error(t, err)
	var unavailable *StoreUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 1, calls)
}

func TestWithRetryEnforcesMinimumThreeAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 1, func() error {
		calls++
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}
