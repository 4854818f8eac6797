package metrics

import (
	"fmt"

	"github.com/kilianp07/ridecore/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty disables it.
	PrometheusAddr string `json:"prometheus_addr"`
}

// SetDefaults leaves the sink list empty, which yields a NopSink.
func (c *Config) SetDefaults() {}

// Validate checks every sink has a type.
func (c *Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	return nil
}
