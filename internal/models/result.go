package models

// FailureKind classifies a geocoding failure. The kind decides whether the
// outcome is retried, cached, or reported to the caller as-is.
type FailureKind string

const (
	// FailureInvalidAddress means the provider could not parse or locate the
	// address. Permanent: retrying cannot change it.
	FailureInvalidAddress FailureKind = "InvalidAddress"
	// FailureRateLimited means the provider itself pushed back, or the local
	// rate limiter refused a permit within its timeout. Transient.
	FailureRateLimited FailureKind = "RateLimited"
	// FailureUnavailable means a network error or provider outage. Transient.
	FailureUnavailable FailureKind = "Unavailable"
	// FailureTimeout means the provider call did not complete in time. Transient.
	FailureTimeout FailureKind = "Timeout"
	// FailureExhaustedRetries means a transient failure persisted past the
	// retry budget. Permanent for this address, but cached with a short TTL.
	FailureExhaustedRetries FailureKind = "ExhaustedRetries"
	// FailureCancelled means the job was cancelled before this address got a
	// terminal outcome. Never cached.
	FailureCancelled FailureKind = "Cancelled"
)

// Transient reports whether the kind may succeed on a later attempt.
func (k FailureKind) Transient() bool {
	switch k {
	case FailureRateLimited, FailureUnavailable, FailureTimeout:
		return true
	default:
		return false
	}
}

// Failure is a typed per-address failure with a human-readable detail.
type Failure struct {
	Kind   FailureKind // Kind classifies the failure.
	Detail string      // Detail is a human-readable explanation.
}

// GeocodeResult is the terminal outcome for one address: either resolved
// coordinates with a provider-assigned precision tag, or a typed failure.
// Exactly one of Coordinates and Failure is set.
type GeocodeResult struct {
	Coordinates *Coordinates // Resolved location, nil on failure.
	Precision   string       // Provider-assigned precision tag (e.g. "ROOFTOP").
	Failure     *Failure     // Typed failure, nil on success.
}

// OK reports whether the result carries coordinates.
func (r GeocodeResult) OK() bool {
	return r.Coordinates != nil
}

// Success builds a successful result.
func Success(coords Coordinates, precision string) GeocodeResult {
	return GeocodeResult{Coordinates: &coords, Precision: precision}
}

// Failed builds a failure result of the given kind.
func Failed(kind FailureKind, detail string) GeocodeResult {
	return GeocodeResult{Failure: &Failure{Kind: kind, Detail: detail}}
}
