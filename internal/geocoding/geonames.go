package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Houeta/batch-geocoder/internal/models"
)

// GeoNamesProvider resolves addresses through the GeoNames search API.
// Free with a registered username; the service throttles by account, so the
// pipeline's rate limiter must be configured within the account's quota.
type GeoNamesProvider struct {
	client   HTTPClient   // HTTP client for making requests
	baseURL  string       // Base URL for the GeoNames search API
	log      *slog.Logger // Logger for logging operations
	username string       // Registered GeoNames account, required on every call
}

// geonamesResponse is the GeoNames searchJSON envelope. Errors are reported
// in-band via the status object, not the HTTP status code.
type geonamesResponse struct {
	Geonames []geonamesResult `json:"geonames"`
	Status   *geonamesStatus  `json:"status"`
}

// geonamesResult is one hit in the response.
type geonamesResult struct {
	Lat     string `json:"lat"`     // Latitude as string
	Lng     string `json:"lng"`     // Longitude as string
	FclName string `json:"fclName"` // Feature class name, used as the precision tag
}

// geonamesStatus carries an in-band API error.
type geonamesStatus struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

const geonamesBaseURL = "http://api.geonames.org/searchJSON"

// GeoNames status values that mean the account's request quota is spent.
// See https://www.geonames.org/export/webservice-exception.html
const (
	geonamesStatusDailyLimit  = 18
	geonamesStatusHourlyLimit = 19
	geonamesStatusWeeklyLimit = 20
)

// NewGeoNamesProvider creates a GeoNames provider with a default HTTP client.
func NewGeoNamesProvider(username string, log *slog.Logger) *GeoNamesProvider {
	const timeout = 10 * time.Second
	return NewGeoNamesProviderWithClient(&http.Client{Timeout: timeout}, username, log)
}

// NewGeoNamesProviderWithClient creates a GeoNames provider with a custom
// HTTP client. Useful for testing with mocked HTTP clients.
func NewGeoNamesProviderWithClient(client HTTPClient, username string, log *slog.Logger) *GeoNamesProvider {
	return &GeoNamesProvider{
		client:   client,
		baseURL:  geonamesBaseURL,
		log:      log,
		username: username,
	}
}

// Resolve geocodes the address with a single GeoNames search request. An
// empty hit list is a permanent InvalidAddress; quota exhaustion (reported
// in-band) maps to RateLimited and other API errors to Unavailable.
func (gp *GeoNamesProvider) Resolve(ctx context.Context, address string) (*Location, error) {
	gp.log.DebugContext(ctx, "Geocoding using GeoNames", "address", address)

	reqURL, err := url.Parse(gp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("maxRows", "1") // Only need the top result
	query.Set("username", gp.username)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := gp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// continue
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(models.FailureRateLimited,
			"geonames API pushed back with status 429", nil)
	default:
		gp.log.ErrorContext(ctx, "GeoNames API error", "status", resp.StatusCode, "body", string(body))
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("geonames API returned status %d", resp.StatusCode), nil)
	}

	var result geonamesResponse
	if err = json.Unmarshal(body, &result); err != nil {
		gp.log.ErrorContext(ctx, "Failed to parse GeoNames response", "error", err, "body", string(body))
		return nil, NewError(models.FailureUnavailable, "failed to decode geonames response", err)
	}

	if result.Status != nil {
		return nil, gp.classifyStatus(ctx, result.Status)
	}

	if len(result.Geonames) == 0 {
		return nil, NewError(models.FailureInvalidAddress,
			fmt.Sprintf("geonames returned no results for %q", address), nil)
	}

	hit := result.Geonames[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("geonames returned invalid latitude %q", hit.Lat), err)
	}
	lng, err := strconv.ParseFloat(hit.Lng, 64)
	if err != nil {
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("geonames returned invalid longitude %q", hit.Lng), err)
	}

	gp.log.DebugContext(ctx, "GeoNames found result", "lat", lat, "lng", lng, "class", hit.FclName)

	return &Location{
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lng},
		Precision:   hit.FclName,
	}, nil
}

// classifyStatus maps an in-band GeoNames error to a failure kind.
func (gp *GeoNamesProvider) classifyStatus(ctx context.Context, status *geonamesStatus) error {
	gp.log.ErrorContext(ctx, "GeoNames API error", "value", status.Value, "message", status.Message)

	switch status.Value {
	case geonamesStatusDailyLimit, geonamesStatusHourlyLimit, geonamesStatusWeeklyLimit:
		return NewError(models.FailureRateLimited,
			fmt.Sprintf("geonames quota exceeded: %s", status.Message), nil)
	default:
		return NewError(models.FailureUnavailable,
			fmt.Sprintf("geonames API error %d: %s", status.Value, status.Message), nil)
	}
}
