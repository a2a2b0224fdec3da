package server

import "fmt"

// Config holds HTTP server configuration.
type Config struct {
	// Host is the bind address.
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the listen port.
	Port int `yaml:"port" mapstructure:"port"`

	// APIKey is the shared bearer secret required on protected routes.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// ReadTimeout is the request read timeout in seconds.
	ReadTimeout int `yaml:"read_timeout" mapstructure:"read_timeout"`

	// WriteTimeout is the response write timeout in seconds.
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout in seconds.
	IdleTimeout int `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8500
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (got: %d)", c.Port)
	}
	if c.APIKey == "" {
		return fmt.Errorf("server.api_key is required (set BEACON_API_KEY)")
	}
	return nil
}
