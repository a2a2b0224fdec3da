package discovery

import (
	"fmt"
	"os"
	"time"
)

// Config holds discovery client configuration.
type Config struct {
	// URL is the base URL of the beacon registry.
	URL string `yaml:"url" mapstructure:"url"`

	// APIKey is the bearer credential for protected registry operations.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// RequestTimeout bounds each individual HTTP call to the registry.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// HeartbeatInterval is how often the Registration handle renews its
	// lease. It must stay well under the registry's lease TTL; the registry
	// default TTL is sized at 3x this interval.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// FindMaxAttempts bounds Find's retry loop.
	FindMaxAttempts int `yaml:"find_max_attempts" mapstructure:"find_max_attempts"`

	// FindInitialBackoff is the first retry delay for Find; it doubles each
	// attempt up to FindMaxBackoff.
	FindInitialBackoff time.Duration `yaml:"find_initial_backoff" mapstructure:"find_initial_backoff"`

	// FindMaxBackoff caps Find's retry delay.
	FindMaxBackoff time.Duration `yaml:"find_max_backoff" mapstructure:"find_max_backoff"`

	// AdvertiseIP overrides local IP autodetection when registering, for
	// hosts behind NAT or with multiple interfaces.
	AdvertiseIP string `yaml:"advertise_ip" mapstructure:"advertise_ip"`

	// StaticOverrides maps service names to fixed "host:port" addresses
	// that bypass the registry. The <NAME>_SERVICE_ADDR environment
	// variable provides the same override per service.
	StaticOverrides map[string]string `yaml:"static_overrides" mapstructure:"static_overrides"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 10 * time.Second
	}
	if c.FindMaxAttempts == 0 {
		c.FindMaxAttempts = 5
	}
	if c.FindInitialBackoff == 0 {
		c.FindInitialBackoff = 500 * time.Millisecond
	}
	if c.FindMaxBackoff == 0 {
		c.FindMaxBackoff = 8 * time.Second
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("discovery.url is required (set DISCOVERY_URL)")
	}
	if c.APIKey == "" {
		return fmt.Errorf("discovery.api_key is required (set DISCOVERY_API_KEY)")
	}
	return nil
}

// ConfigFromEnv builds a Config from the standard environment variables.
func ConfigFromEnv() Config {
	return Config{
		URL:         os.Getenv("DISCOVERY_URL"),
		APIKey:      os.Getenv("DISCOVERY_API_KEY"),
		AdvertiseIP: os.Getenv("BEACON_ADVERTISE_IP"),
	}
}
