package registry

import (
	"fmt"
	"time"
)

// Config holds registry core configuration.
type Config struct {
	// LeaseTTL is the default lease duration for registrations that carry no
	// per-request override. Sized at 3x the expected collaborator heartbeat
	// interval so a single missed heartbeat does not evict a healthy service.
	LeaseTTL time.Duration `yaml:"lease_ttl" mapstructure:"lease_ttl"`

	// SweepInterval is how often the eviction sweeper scans for expired
	// records. Recommended at most half the lease TTL.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.LeaseTTL == 0 {
		c.LeaseTTL = 30 * time.Second
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = c.LeaseTTL / 2
	}
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	if c.LeaseTTL <= 0 {
		return fmt.Errorf("registry.lease_ttl must be > 0 (got: %s)", c.LeaseTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("registry.sweep_interval must be > 0 (got: %s)", c.SweepInterval)
	}
	if c.SweepInterval > c.LeaseTTL {
		return fmt.Errorf("registry.sweep_interval (%s) must not exceed lease_ttl (%s)", c.SweepInterval, c.LeaseTTL)
	}
	return nil
}
