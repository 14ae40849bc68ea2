package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration settings for the batch geocoding service.
// Values come from GEOCODER_-prefixed environment variables, optionally
// layered over a YAML file pointed to by GEOCODER_CONFIG.
type Config struct {
	Env          string         // Env is the current environment: local, development, production.
	Port         int            // Port is the HTTP listen port (API, healthz, metrics).
	ProviderType string         // ProviderType specifies which geocoding provider to use.
	APIKey       string         // APIKey for accessing external services (required for Google).
	ProviderUser string         // ProviderUser is the registered account name (required for GeoNames).
	Workers      int            // Workers is the number of concurrent pipeline workers.
	AddrPrefix   string         // AddrPrefix is prepended to every address for regional accuracy.
	Rate         RateConfig     // Rate holds the provider rate limit settings.
	Retry        RetryConfig    // Retry holds the backoff policy settings.
	Cache        CacheConfig    // Cache holds the result cache settings.
	Database     PostgresConfig // Database holds the optional postgres configuration.
}

// RateConfig shapes the shared token bucket in front of the provider.
type RateConfig struct {
	Limit          float64       // Limit is the refill rate in tokens per second.
	Burst          int           // Burst is the bucket capacity.
	AcquireTimeout time.Duration // AcquireTimeout bounds how long a worker waits for a token.
}

// RetryConfig shapes the exponential backoff for transient failures.
type RetryConfig struct {
	BaseDelay   time.Duration // BaseDelay is the first retry delay.
	MaxDelay    time.Duration // MaxDelay caps the backoff.
	MaxAttempts int           // MaxAttempts is the total attempt budget per address.
}

// CacheConfig bounds the in-memory result cache.
type CacheConfig struct {
	MaxSize    int           // MaxSize is the LRU capacity; 0 means unbounded.
	SuccessTTL time.Duration // SuccessTTL applies to successes and invalid addresses.
	FailureTTL time.Duration // FailureTTL applies to exhausted-retries outcomes.
	WarmLimit  int           // WarmLimit caps how many persisted rows warm the cache at startup.
}

// PostgresConfig holds the connection details for the optional result store.
// An empty Host disables persistence entirely.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a result store is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MustLoad reads the configuration and panics on malformed values. Meant to
// be called once at startup.
func MustLoad() *Config {
	v := viper.New()
	v.SetEnvPrefix("GEOCODER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("http_port", 8080)
	v.SetDefault("provider.type", "nominatim")
	v.SetDefault("provider.key", "")
	v.SetDefault("provider.user", "")
	v.SetDefault("workers", 10)
	v.SetDefault("address_prefix", "")
	v.SetDefault("rate.limit", 10.0)
	v.SetDefault("rate.burst", 10)
	v.SetDefault("rate.acquire_timeout", "10s")
	v.SetDefault("retry.base_delay", "200ms")
	v.SetDefault("retry.max_delay", "10s")
	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("cache.max_size", 10000)
	v.SetDefault("cache.success_ttl", "24h")
	v.SetDefault("cache.failure_ttl", "10m")
	v.SetDefault("cache.warm_limit", 1000)
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "")

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Sprintf("failed to read config file %s: %v", path, err))
		}
	}

	cfg := &Config{
		Env:          v.GetString("env"),
		Port:         v.GetInt("http_port"),
		ProviderType: v.GetString("provider.type"),
		APIKey:       v.GetString("provider.key"),
		ProviderUser: v.GetString("provider.user"),
		Workers:      v.GetInt("workers"),
		AddrPrefix:   v.GetString("address_prefix"),
		Rate: RateConfig{
			Limit:          v.GetFloat64("rate.limit"),
			Burst:          v.GetInt("rate.burst"),
			AcquireTimeout: v.GetDuration("rate.acquire_timeout"),
		},
		Retry: RetryConfig{
			BaseDelay:   v.GetDuration("retry.base_delay"),
			MaxDelay:    v.GetDuration("retry.max_delay"),
			MaxAttempts: v.GetInt("retry.max_attempts"),
		},
		Cache: CacheConfig{
			MaxSize:    v.GetInt("cache.max_size"),
			SuccessTTL: v.GetDuration("cache.success_ttl"),
			FailureTTL: v.GetDuration("cache.failure_ttl"),
			WarmLimit:  v.GetInt("cache.warm_limit"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}

	if cfg.Port <= 0 {
		panic("failed to parse HTTP port from configuration")
	}
	if cfg.Workers <= 0 {
		panic("failed to parse workers from configuration, must be a positive integer")
	}
	if cfg.Rate.Limit <= 0 || cfg.Rate.Burst <= 0 {
		panic("failed to parse rate limit from configuration, rate and burst must be positive")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		panic("failed to parse retry attempts from configuration, must be a positive integer")
	}

	return cfg
}
