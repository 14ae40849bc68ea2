package geocoding_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/Houeta/batch-geocoder/internal/geocoding"
	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/Houeta/batch-geocoder/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGeoNamesResolve(t *testing.T) {
	ctx := t.Context()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.URL.Query().Get("q") == "221b baker street london" &&
				req.URL.Query().Get("username") == "demo" &&
				req.URL.Query().Get("maxRows") == "1"
		})).Return(httpResponse(http.StatusOK,
			`{"totalResultsCount":1,"geonames":[{"lat":"51.5238","lng":"-0.1586","fclName":"spot, building, farm"}]}`), nil).Once()

		loc, err := provider.Resolve(ctx, "221b baker street london")

		require.NoError(t, err)
		require.NotNil(t, loc)
		assert.InEpsilon(t, 51.5238, loc.Coordinates.Latitude, 0.0001)
		assert.InEpsilon(t, -0.1586, loc.Coordinates.Longitude, 0.0001)
		assert.Equal(t, "spot, building, farm", loc.Precision)
	})

	t.Run("empty hit list means invalid address", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusOK, `{"totalResultsCount":0,"geonames":[]}`), nil).Once()

		loc, err := provider.Resolve(ctx, "")

		require.Nil(t, loc)
		require.Error(t, err)
		assert.Equal(t, models.FailureInvalidAddress, geocoding.KindOf(err))
	})

	t.Run("quota exhaustion maps to rate limited", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusOK,
				`{"status":{"message":"the hourly limit has been exceeded","value":19}}`), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureRateLimited, geocoding.KindOf(err))
	})

	t.Run("other status errors map to unavailable", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusOK,
				`{"status":{"message":"user does not exist.","value":10}}`), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureUnavailable, geocoding.KindOf(err))
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusTooManyRequests, ""), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureRateLimited, geocoding.KindOf(err))
	})

	t.Run("5xx maps to unavailable", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusBadGateway, "upstream broken"), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureUnavailable, geocoding.KindOf(err))
	})

	t.Run("malformed body is transient", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusOK, `not json`), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureUnavailable, geocoding.KindOf(err))
	})

	t.Run("invalid coordinates are transient", func(t *testing.T) {
		mockClient := mocks.NewHTTPClient(t)
		provider := geocoding.NewGeoNamesProviderWithClient(mockClient, "demo", slog.Default())

		mockClient.On("Do", mock.Anything).
			Return(httpResponse(http.StatusOK,
				`{"geonames":[{"lat":"not-a-number","lng":"1.0","fclName":"spot"}]}`), nil).Once()

		_, err := provider.Resolve(ctx, "somewhere")

		require.Error(t, err)
		assert.Equal(t, models.FailureUnavailable, geocoding.KindOf(err))
	})
}
