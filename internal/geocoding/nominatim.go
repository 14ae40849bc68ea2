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

// NominatimProvider resolves addresses through OpenStreetMap's Nominatim
// API. Free, no API key; the service-side fair-use limit is 1 request per
// second, which the pipeline's rate limiter must be configured to respect.
type NominatimProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the Nominatim API
	log     *slog.Logger // Logger for logging operations
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents one hit in the Nominatim JSON response.
type nominatimResponse struct {
	Lat  string `json:"lat"`  // Latitude as string
	Lon  string `json:"lon"`  // Longitude as string
	Type string `json:"type"` // Place category, used as the precision tag
}

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NewNominatimProvider creates a Nominatim provider with a default HTTP
// client. The User-Agent must carry valid contact info per the Nominatim
// usage policy: https://operations.osmfoundation.org/policies/nominatim/
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10 * time.Second
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout}, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client. Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   nominatimBaseURL,
		log:       log,
		userAgent: "BatchGeocoder/1.0 (https://github.com/Houeta/batch-geocoder)",
	}
}

// Resolve geocodes the address with a single Nominatim request. An empty
// result list is a permanent InvalidAddress; HTTP 429 maps to RateLimited
// and 5xx responses to Unavailable.
func (np *NominatimProvider) Resolve(ctx context.Context, address string) (*Location, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1") // Only need the top result
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Required header per Nominatim usage policy.
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
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
			"nominatim API pushed back with status 429", nil)
	default:
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("nominatim API returned status %d", resp.StatusCode), nil)
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, NewError(models.FailureUnavailable, "failed to decode nominatim response", err)
	}

	if len(results) == 0 {
		return nil, NewError(models.FailureInvalidAddress,
			fmt.Sprintf("nominatim returned no results for %q", address), nil)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("nominatim returned invalid latitude %q", results[0].Lat), err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, NewError(models.FailureUnavailable,
			fmt.Sprintf("nominatim returned invalid longitude %q", results[0].Lon), err)
	}

	np.log.DebugContext(ctx, "Nominatim found result", "lat", lat, "lon", lon, "type", results[0].Type)

	return &Location{
		Coordinates: models.Coordinates{Latitude: lat, Longitude: lon},
		Precision:   results[0].Type,
	}, nil
}
