package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents the Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents the OpenStreetMap Nominatim provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeGeoNames represents the GeoNames search provider.
	ProviderTypeGeoNames ProviderType = "geonames"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type     ProviderType // Type of provider to create
	APIKey   string       // API key (used by Google provider)
	Username string       // Registered account name (used by GeoNames provider)
	Logger   *slog.Logger // Logger for the provider
}

// ErrAPIKeyRequired is returned when the selected provider needs an API key
// and none was configured.
var ErrAPIKeyRequired = errors.New("API key is required for Google provider")

// ErrUsernameRequired is returned when the GeoNames provider is selected
// without a registered account name.
var ErrUsernameRequired = errors.New("username is required for GeoNames provider")

// NewProvider creates a geocoding provider based on the provided
// configuration, decoupling provider instantiation from the pipeline.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
// - "geonames": GeoNames search API (requires a registered username)
//
// Note that providers created here do no rate limiting of their own: the
// pipeline's shared limiter is the only throttle, so the configured rate
// must fit the selected provider's terms.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.Logger), nil
	case ProviderTypeGeoNames:
		if config.Username == "" {
			return nil, ErrUsernameRequired
		}
		return NewGeoNamesProvider(config.Username, config.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	client, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
