// Package retry decides whether a failed provider call is attempted again
// and after what delay. Permanent failures give up immediately; transient
// ones back off exponentially up to a capped number of attempts.
package retry

import (
	"time"

	"github.com/Houeta/batch-geocoder/internal/models"
)

// Default policy values, used when the configuration leaves them unset.
const (
	DefaultBaseDelay   = 200 * time.Millisecond
	DefaultMaxDelay    = 10 * time.Second
	DefaultMaxAttempts = 5
)

// Decision tells the worker when to try again.
type Decision struct {
	RetryAfter time.Duration // Delay before the next attempt.
}

// Policy is an exponential backoff policy. The zero value is not usable;
// create instances with NewPolicy.
type Policy struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
}

// NewPolicy creates a policy retrying transient failures up to maxAttempts
// total attempts, delaying baseDelay × 2^(attempt-1) between attempts,
// capped at maxDelay. Non-positive arguments fall back to the defaults.
func NewPolicy(baseDelay, maxDelay time.Duration, maxAttempts int) Policy {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return Policy{baseDelay: baseDelay, maxDelay: maxDelay, maxAttempts: maxAttempts}
}

// MaxAttempts returns the total attempt budget per address.
func (p Policy) MaxAttempts() int {
	return p.maxAttempts
}

// Decide reports whether a failure of the given kind should be retried after
// attempt attempts have been made (attempt is 1 after the first call). It
// returns false for permanent kinds and once the attempt budget is spent;
// the worker then converts the outcome to ExhaustedRetries.
func (p Policy) Decide(kind models.FailureKind, attempt int) (Decision, bool) {
	if !kind.Transient() || attempt >= p.maxAttempts {
		return Decision{}, false
	}

	delay := p.baseDelay << (attempt - 1)
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}

	return Decision{RetryAfter: delay}, true
}
