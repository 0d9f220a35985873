package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Credentials holds the API key pair used for request signing.
type Credentials struct {
	// APIKey is the public API key identifier.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used for HMAC signing.
	SecretKey string `json:"secret_key"`
}

// Config contains all configuration options for a connector instance.
// It includes authentication, networking, rate limiting, and circuit
// breaker settings.
type Config struct {
	// Hostname is the exchange hostname, e.g. "foxbit.com.br".
	Hostname string `json:"hostname" validate:"required,hostname"`
	// Version is the REST API version segment, e.g. "v3".
	Version string `json:"version" validate:"required"`
	// APIURL overrides the derived base URL when set. Used for tests
	// against local servers.
	APIURL string `json:"api_url,omitempty" validate:"omitempty,url"`

	Credentials *Credentials `json:"credentials,omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	// RateLimitRequests is the request budget per RateLimitPeriod.
	// Zero disables client-side rate limiting.
	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=0"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults.
// Default values: 10s timeout, 3 retries, 100ms-1s retry wait and a
// 300 requests per 10s rate limit, matching the exchange's published
// quota.
func DefaultConfig() *Config {
	return &Config{
		Hostname:     "foxbit.com.br",
		Version:      "v3",
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 300,
		RateLimitPeriod:   10 * time.Second,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

// BaseURL returns the API root, either the APIURL override or the URL
// derived from Hostname and Version.
func (c *Config) BaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return fmt.Sprintf("https://api.%s/rest/%s", c.Hostname, c.Version)
}

// PathPrefix returns the version path prefix included in signature
// prehashes, e.g. "/rest/v3".
func (c *Config) PathPrefix() string {
	return "/rest/" + c.Version
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RateLimitRequests > 0 && c.RateLimitPeriod <= 0 {
		return errors.New("RateLimitPeriod must be positive when rate limiting is enabled")
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithAPIURL overrides the derived base URL and returns the config for chaining.
func (c *Config) WithAPIURL(apiURL string) *Config {
	c.APIURL = apiURL
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// HasCredentials reports whether a usable key pair is configured.
func (c *Config) HasCredentials() bool {
	return c.Credentials != nil && c.Credentials.APIKey != "" && c.Credentials.SecretKey != ""
}
