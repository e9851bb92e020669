package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/opclink/opclink-go/pkg/diag"
	"github.com/opclink/opclink-go/pkg/driver"
)

// Config errors.
var (
	ErrInvalidConfig = errors.New("invalid session config")
)

// RetryConfig is the connect retry policy: how many opens one Connect
// call makes and how the delay between them grows.
type RetryConfig struct {
	// MaxAttempts is the total number of open attempts (>= 1).
	MaxAttempts int

	// InitialDelay is the delay after the first failed attempt.
	InitialDelay time.Duration

	// Multiplier grows the delay after every failed attempt (>= 1).
	Multiplier float64

	// MaxDelay caps the delay.
	MaxDelay time.Duration

	// Jitter is the maximum random increase as a fraction of the
	// delay. Zero keeps the schedule deterministic.
	Jitter float64
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		Multiplier:   DefaultMultiplier,
		MaxDelay:     DefaultMaxDelay,
	}
}

// Config configures a session Manager.
type Config struct {
	// Endpoint is the server to connect to, including per-attempt
	// connect timeout and security settings.
	Endpoint driver.Endpoint

	// Retry is the connect retry policy.
	Retry RetryConfig

	// Recorder receives diagnostic events. Nil disables diagnostics.
	Recorder diag.Recorder
}

// DefaultConfig returns a Config for url with default timeouts and
// retry policy.
func DefaultConfig(url string) Config {
	return Config{
		Endpoint: driver.Endpoint{
			URL:            url,
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 10 * time.Second,
		},
		Retry: DefaultRetryConfig(),
	}
}

// Validate checks the config for usability.
func (c *Config) Validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("%w: endpoint URL is required", ErrInvalidConfig)
	}
	if c.Endpoint.ConnectTimeout < 0 {
		return fmt.Errorf("%w: connect timeout must not be negative", ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1", ErrInvalidConfig)
	}
	if c.Retry.InitialDelay <= 0 {
		return fmt.Errorf("%w: retry initial delay must be positive", ErrInvalidConfig)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry multiplier must be at least 1", ErrInvalidConfig)
	}
	if c.Retry.MaxDelay > 0 && c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("%w: retry max delay is below the initial delay", ErrInvalidConfig)
	}
	return nil
}
