package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/Houeta/batch-geocoder/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_BurstIsImmediate(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(1, 3, 50*time.Millisecond)
	ctx := t.Context()

	start := time.Now()
	for range 3 {
		require.NoError(t, limiter.Acquire(ctx))
	}
	assert.Less(t, time.Since(start), 40*time.Millisecond,
		"burst capacity should be served without waiting")
}

func TestAcquire_TimesOutWhenExhausted(t *testing.T) {
	t.Parallel()

	// One token per minute: after the burst is drained nothing refills in
	// time, so the next acquire must hit the timeout.
	limiter := ratelimit.New(1.0/60.0, 1, 20*time.Millisecond)
	ctx := t.Context()

	require.NoError(t, limiter.Acquire(ctx))

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ratelimit.ErrAcquireTimeout)
}

func TestAcquire_RefillAllowsNextToken(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(100, 1, time.Second)
	ctx := t.Context()

	require.NoError(t, limiter.Acquire(ctx))

	// Refill rate is 100/s, so the second token arrives in ~10ms.
	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestAcquire_CallerCancellation(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(1.0/60.0, 1, time.Minute)
	require.NoError(t, limiter.Acquire(t.Context()))

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_RateBound(t *testing.T) {
	t.Parallel()

	// R=50/s, C=2: 10 acquires need 8 refills beyond the burst, so the
	// window must span at least 8/50s. Verifies the bucket actually gates.
	limiter := ratelimit.New(50, 2, time.Second)
	ctx := t.Context()

	start := time.Now()
	for range 10 {
		require.NoError(t, limiter.Acquire(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
