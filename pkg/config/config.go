package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opclink/opclink-go/pkg/driver"
	"github.com/opclink/opclink-go/pkg/session"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "500ms" or "5s".
type Duration time.Duration

// UnmarshalYAML decodes a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML encodes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Retry is the connect retry policy section.
type Retry struct {
	// MaxAttempts is the total number of open attempts per connect.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the delay after the first failed attempt.
	InitialDelay Duration `yaml:"initial_delay"`

	// Multiplier grows the delay after every failed attempt.
	Multiplier float64 `yaml:"multiplier"`

	// MaxDelay caps the delay.
	MaxDelay Duration `yaml:"max_delay"`

	// Jitter is the maximum random delay increase as a fraction of the
	// base delay.
	Jitter float64 `yaml:"jitter"`
}

// Endpoint is the server endpoint section.
type Endpoint struct {
	// URL is the server endpoint, e.g. "opc.tcp://192.168.0.5:4840".
	URL string `yaml:"url"`

	// ConnectTimeout bounds a single open attempt.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// RequestTimeout bounds individual read/write calls.
	RequestTimeout Duration `yaml:"request_timeout"`

	// SecurityPolicy and SecurityMode select the channel security
	// profile. Empty means the engine's default.
	SecurityPolicy string `yaml:"security_policy"`
	SecurityMode   string `yaml:"security_mode"`

	// Username and Password select user-token authentication.
	// Empty username means an anonymous session.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ApplicationName identifies this client to the server.
	ApplicationName string `yaml:"application_name"`

	// Retry is the connect retry policy.
	Retry Retry `yaml:"retry"`
}

// Diagnostics configures where diagnostic events go.
type Diagnostics struct {
	// Level is the minimum console level: debug, info, warn or error.
	Level string `yaml:"level"`

	// File, when set, additionally captures all events to a CBOR file.
	File string `yaml:"file"`
}

// Config is the full client configuration file.
type Config struct {
	Endpoint Endpoint `yaml:"endpoint"`

	// AliasFile points at the alias registry to load: a .json export
	// or a .csv mapping.
	AliasFile string `yaml:"alias_file"`

	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Default returns a Config with the default timeouts, retry policy and
// diagnostics level. The endpoint URL is left empty.
func Default() Config {
	return Config{
		Endpoint: Endpoint{
			ConnectTimeout:  Duration(5 * time.Second),
			RequestTimeout:  Duration(10 * time.Second),
			ApplicationName: "opclink",
			Retry: Retry{
				MaxAttempts:  session.DefaultMaxAttempts,
				InitialDelay: Duration(session.DefaultInitialDelay),
				Multiplier:   session.DefaultMultiplier,
				MaxDelay:     Duration(session.DefaultMaxDelay),
			},
		},
		Diagnostics: Diagnostics{Level: "info"},
	}
}

// Parse decodes data over the defaults, so omitted fields keep their
// default values.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SessionConfig translates the file values into a session manager
// configuration and validates it.
func (c *Config) SessionConfig() (session.Config, error) {
	sc := session.Config{
		Endpoint: driver.Endpoint{
			URL:             c.Endpoint.URL,
			ConnectTimeout:  c.Endpoint.ConnectTimeout.Std(),
			RequestTimeout:  c.Endpoint.RequestTimeout.Std(),
			SecurityPolicy:  c.Endpoint.SecurityPolicy,
			SecurityMode:    c.Endpoint.SecurityMode,
			Username:        c.Endpoint.Username,
			Password:        c.Endpoint.Password,
			ApplicationName: c.Endpoint.ApplicationName,
		},
		Retry: session.RetryConfig{
			MaxAttempts:  c.Endpoint.Retry.MaxAttempts,
			InitialDelay: c.Endpoint.Retry.InitialDelay.Std(),
			Multiplier:   c.Endpoint.Retry.Multiplier,
			MaxDelay:     c.Endpoint.Retry.MaxDelay.Std(),
			Jitter:       c.Endpoint.Retry.Jitter,
		},
	}
	if err := sc.Validate(); err != nil {
		return session.Config{}, err
	}
	return sc, nil
}
