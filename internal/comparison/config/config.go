package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the comparison module.
type Config struct {
	// Session lifecycle
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	// Snapshot cache. Zero keeps snapshots for the whole session.
	SnapshotMaxAge time.Duration `env:"SNAPSHOT_MAX_AGE" envDefault:"0s"`

	// HubSpot API
	HubSpotBaseURL        string        `env:"HUBSPOT_BASE_URL" envDefault:"https://api.hubapi.com"`
	HubSpotTimeout        time.Duration `env:"HUBSPOT_TIMEOUT" envDefault:"30s"`
	HubSpotPageSize       int           `env:"HUBSPOT_PAGE_SIZE" envDefault:"100"`
	HubSpotRateLimitRetry time.Duration `env:"HUBSPOT_RATE_LIMIT_RETRY" envDefault:"10s"`

	// Circuit breaker per credential
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.6"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Session tokens
	SessionSigningKey string `env:"SESSION_SIGNING_KEY"`
	SessionIssuer     string `env:"SESSION_ISSUER" envDefault:"portal-compare"`
	CookieName        string `env:"SESSION_COOKIE_NAME" envDefault:"pc_session"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite    string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	ValidateCredentials bool   `env:"VALIDATE_CREDENTIALS" envDefault:"true"`
	MetricsNamespace    string `env:"METRICS_NAMESPACE" envDefault:"portal_compare"`
}

// LoadConfig loads configuration from environment variables and applies
// defaults. A missing signing key is replaced by a random per-process key.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	cfg := &Config{
		SessionTTL:            time.Hour,
		SweepInterval:         5 * time.Minute,
		HubSpotBaseURL:        "https://api.hubapi.com",
		HubSpotTimeout:        30 * time.Second,
		HubSpotPageSize:       100,
		HubSpotRateLimitRetry: 10 * time.Second,
		BreakerFailureRatio:   0.6,
		BreakerMinRequests:    5,
		BreakerOpenTimeout:    30 * time.Second,
		SessionIssuer:         "portal-compare",
		CookieName:            "pc_session",
		CookieSameSite:        "Lax",
		ValidateCredentials:   true,
		MetricsNamespace:      "portal_compare",
	}
	_ = cfg.normalize()
	return cfg
}

func (c *Config) normalize() error {
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.SweepInterval < 0 {
		return errors.New("sweep_interval must not be negative")
	}
	if c.HubSpotPageSize <= 0 || c.HubSpotPageSize > 100 {
		return errors.New("hubspot_page_size must be between 1 and 100")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return errors.New("breaker_failure_ratio must be in (0, 1]")
	}
	c.HubSpotBaseURL = strings.TrimRight(c.HubSpotBaseURL, "/")

	if c.CookieSameSite == "" {
		c.CookieSameSite = "Lax"
	}
	c.CookieSameSite = strings.ToUpper(c.CookieSameSite[:1]) + strings.ToLower(c.CookieSameSite[1:])
	if !(c.CookieSameSite == "Lax" || c.CookieSameSite == "Strict" || c.CookieSameSite == "None") {
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if c.SessionSigningKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("failed to generate session signing key: %w", err)
		}
		c.SessionSigningKey = hex.EncodeToString(key)
	}
	return nil
}
