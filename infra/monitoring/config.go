package monitoring

import "fmt"

// Config selects the error tracker. An empty DSN disables reporting.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	FlushTimeoutMS   int     `json:"flush_timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.FlushTimeoutMS == 0 {
		c.FlushTimeoutMS = 2000
	}
}

// Validate checks the sample rate and timeout.
func (c Config) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("monitoring: traces_sample_rate must be within [0,1], got %v", c.TracesSampleRate)
	}
	if c.FlushTimeoutMS < 0 {
		return fmt.Errorf("monitoring: flush_timeout_ms must be non-negative")
	}
	return nil
}
