package config_test

import (
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/Houeta/batch-geocoder/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestMustLoad_Defaults(t *testing.T) {
	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "nominatim", cfg.ProviderType)
	assert.Equal(t, 10, cfg.Workers)
	assert.InEpsilon(t, 10.0, cfg.Rate.Limit, 1e-9)
	assert.Equal(t, 10, cfg.Rate.Burst)
	assert.Equal(t, 10*time.Second, cfg.Rate.AcquireTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10000, cfg.Cache.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.SuccessTTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.FailureTTL)
	assert.False(t, cfg.Database.Enabled())
}

func TestMustLoad_FromEnv(t *testing.T) {
	t.Setenv("GEOCODER_ENV", "local")
	t.Setenv("GEOCODER_HTTP_PORT", "9090")
	t.Setenv("GEOCODER_PROVIDER_TYPE", "google")
	t.Setenv("GEOCODER_PROVIDER_KEY", "testAPIKey")
	t.Setenv("GEOCODER_PROVIDER_USER", "geouser")
	t.Setenv("GEOCODER_WORKERS", "4")
	t.Setenv("GEOCODER_ADDRESS_PREFIX", "Kyiv, ")
	t.Setenv("GEOCODER_RATE_LIMIT", "50")
	t.Setenv("GEOCODER_RATE_BURST", "5")
	t.Setenv("GEOCODER_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("GEOCODER_DB_HOST", "testHost")
	t.Setenv("GEOCODER_DB_PORT", "12345")
	t.Setenv("GEOCODER_DB_USER", "admin")
	t.Setenv("GEOCODER_DB_PASSWORD", "adminpass")
	t.Setenv("GEOCODER_DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "google", cfg.ProviderType)
	assert.Equal(t, "testAPIKey", cfg.APIKey)
	assert.Equal(t, "geouser", cfg.ProviderUser)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "Kyiv, ", cfg.AddrPrefix)
	assert.InEpsilon(t, 50.0, cfg.Rate.Limit, 1e-9)
	assert.Equal(t, 5, cfg.Rate.Burst)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func TestMustLoad_FromFile(t *testing.T) {
	defer filet.CleanUp(t)

	content := "env: development\nworkers: 2\nrate:\n  limit: 1\n  burst: 1\n"
	file := filet.TmpFile(t, "", content)
	t.Setenv("GEOCODER_CONFIG", file.Name())

	cfg := config.MustLoad()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 2, cfg.Workers)
	assert.InEpsilon(t, 1.0, cfg.Rate.Limit, 1e-9)
	assert.Equal(t, 1, cfg.Rate.Burst)
}

func TestMustLoad_MissingFile(t *testing.T) {
	t.Setenv("GEOCODER_CONFIG", "/definitely/not/a/real/config.yaml")

	assert.Panics(t, func() {
		config.MustLoad()
	})
}

func TestMustLoad_WorkersError(t *testing.T) {
	t.Setenv("GEOCODER_WORKERS", "error_value")

	assert.PanicsWithValue(t, "failed to parse workers from configuration, must be a positive integer", func() {
		config.MustLoad()
	})
}

func TestMustLoad_RateError(t *testing.T) {
	t.Setenv("GEOCODER_RATE_BURST", "-1")

	assert.PanicsWithValue(t, "failed to parse rate limit from configuration, rate and burst must be positive", func() {
		config.MustLoad()
	})
}
