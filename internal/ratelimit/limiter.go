// Package ratelimit bounds the call rate against the upstream geocoding
// provider. One Limiter is shared by every worker in the process: the
// provider's rate limit is the actual scarce resource, so this is the single
// serialization point of the pipeline.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrAcquireTimeout is returned when no token became available within the
// limiter's timeout. Callers treat it as a retryable failure.
var ErrAcquireTimeout = errors.New("rate limiter: no token within timeout")

// Limiter is a token bucket with capacity C refilled at R tokens per second.
// Safe for concurrent use; fairness across waiters is best-effort FIFO.
type Limiter struct {
	bucket  *rate.Limiter
	timeout time.Duration
}

// New creates a limiter refilling at rps tokens per second with the given
// burst capacity. A timeout of zero or less means Acquire waits as long as
// the caller's context allows.
func New(rps float64, burst int, timeout time.Duration) *Limiter {
	return &Limiter{
		bucket:  rate.NewLimiter(rate.Limit(rps), burst),
		timeout: timeout,
	}
}

// Acquire blocks until a token is available, the timeout elapses, or ctx is
// done. It returns ErrAcquireTimeout on timeout and the context error when
// the caller cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	wctx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if err := l.bucket.Wait(wctx); err != nil {
		// Distinguish the caller giving up from the timeout expiring.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrAcquireTimeout
	}

	return nil
}
