package geocoding_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Houeta/batch-geocoder/internal/geocoding"
	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()
	logger := slog.Default()

	t.Run("google requires an API key", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeGoogle,
			Logger: logger,
		})

		require.Nil(t, provider)
		require.ErrorIs(t, err, geocoding.ErrAPIKeyRequired)
	})

	t.Run("google with key", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeGoogle,
			APIKey: "test-key",
			Logger: logger,
		})

		require.NoError(t, err)
		assert.IsType(t, &geocoding.GoogleProvider{}, provider)
	})

	t.Run("nominatim needs no key", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeNominatim,
			Logger: logger,
		})

		require.NoError(t, err)
		assert.IsType(t, &geocoding.NominatimProvider{}, provider)
	})

	t.Run("geonames requires a username", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   geocoding.ProviderTypeGeoNames,
			Logger: logger,
		})

		require.Nil(t, provider)
		require.ErrorIs(t, err, geocoding.ErrUsernameRequired)
	})

	t.Run("geonames with username", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:     geocoding.ProviderTypeGeoNames,
			Username: "demo",
			Logger:   logger,
		})

		require.NoError(t, err)
		assert.IsType(t, &geocoding.GeoNamesProvider{}, provider)
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()
		provider, err := geocoding.NewProvider(geocoding.ProviderConfig{
			Type:   "carrier-pigeon",
			Logger: logger,
		})

		require.Nil(t, provider)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider type")
	})
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("typed provider error keeps its kind", func(t *testing.T) {
		t.Parallel()
		err := geocoding.NewError(models.FailureRateLimited, "pushed back", nil)
		assert.Equal(t, models.FailureRateLimited, geocoding.KindOf(err))
	})

	t.Run("deadline maps to timeout", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, models.FailureTimeout, geocoding.KindOf(context.DeadlineExceeded))
	})

	t.Run("unknown errors are unavailable", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, models.FailureUnavailable, geocoding.KindOf(assert.AnError))
	})
}
