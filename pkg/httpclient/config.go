package httpclient

import (
	"fmt"
	"time"
)

// Config configures the HTTP client with timeout, rate-limit, and logging settings.
type Config struct {
	// Timeout is the total request timeout.
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// RequestsPerSecond caps the outbound request rate (0 = unlimited).
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Only used when RequestsPerSecond > 0.
	// Default: 1.
	Burst int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		UserAgent:         "scriptflow-http-client/1.0",
		RequestsPerSecond: 0,
		Burst:             1,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be >= 0, got %v", c.RequestsPerSecond)
	}

	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return fmt.Errorf("burst must be >= 1 when rate limiting is enabled, got %d", c.Burst)
	}

	return nil
}
