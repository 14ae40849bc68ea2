// Package geocoding wraps the outbound geocoding providers. A provider
// performs exactly one resolution attempt per call; retries, caching, and
// rate limiting are the pipeline's concern, not the provider's.
package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/Houeta/batch-geocoder/internal/models"
)

// Location is a resolved address: coordinates plus the provider-assigned
// precision tag (e.g. Google's "ROOFTOP" or a Nominatim place category).
type Location struct {
	Coordinates models.Coordinates
	Precision   string
}

// Provider is the opaque capability of one upstream geocoding service.
// Resolve returns the location for a normalized address, or an error
// classifiable with KindOf. Implementations never retry internally.
type Provider interface {
	Resolve(ctx context.Context, address string) (*Location, error)
}

// Error is a typed provider failure carrying the failure kind the pipeline
// acts on.
type Error struct {
	Kind models.FailureKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed provider error.
func NewError(kind models.FailureKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf classifies an error returned by a Provider. Typed provider errors
// keep their kind; deadline and I/O timeout errors map to Timeout; anything
// else is treated as a transient outage.
func KindOf(err error) models.FailureKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.FailureTimeout
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return models.FailureTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return models.FailureTimeout
	}

	return models.FailureUnavailable
}
