package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Houeta/batch-geocoder/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider resolves addresses through the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient is the part of the Google Maps client this provider uses.
// Kept narrow so tests can mock it.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider creates a provider on top of an initialized Google Maps
// client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Resolve geocodes the address with a single Google Maps API call. An empty
// result set means Google could not locate the address, which is permanent;
// quota pushback and transport failures are classified as transient.
func (gp *GoogleProvider) Resolve(ctx context.Context, address string) (*Location, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	req := maps.GeocodingRequest{Address: address}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, NewError(classifyGoogleError(err), "google geocode failed", err)
	}

	if len(results) == 0 {
		return nil, NewError(models.FailureInvalidAddress,
			fmt.Sprintf("google maps returned no results for %q", address), nil)
	}

	loc := results[0].Geometry.Location

	return &Location{
		Coordinates: models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng},
		Precision:   results[0].Geometry.LocationType,
	}, nil
}

// classifyGoogleError maps a Google Maps client error onto the failure
// taxonomy. The maps client surfaces API status codes in the error text.
func classifyGoogleError(err error) models.FailureKind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "OVER_QUERY_LIMIT") || strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return models.FailureRateLimited
	case strings.Contains(msg, "INVALID_REQUEST") || strings.Contains(msg, "ZERO_RESULTS"):
		return models.FailureInvalidAddress
	default:
		return KindOf(err)
	}
}
