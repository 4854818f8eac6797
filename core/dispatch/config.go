package dispatch

import (
	"fmt"

	"github.com/kilianp07/ridecore/core/model"
)

// Config defines dispatch-related settings.
type Config struct {
	// SpeedKmh converts pickup distance into travel time for cost and ETA.
	SpeedKmh float64 `json:"speed_kmh"`
	// PriorityMultipliers scale the cost per priority. Lower cost wins.
	PriorityMultipliers map[model.Priority]float64 `json:"priority_multipliers"`
	// MaxClaimRetries bounds re-selection when a concurrent batch claims the
	// chosen driver first.
	MaxClaimRetries int `json:"max_claim_retries"`
}

// Default values.
const (
	DefaultSpeedKmh        = 30.0
	DefaultMaxClaimRetries = 3
)

// DefaultPriorityMultipliers favour urgent requests.
func DefaultPriorityMultipliers() map[model.Priority]float64 {
	return map[model.Priority]float64{
		model.PriorityUrgent:   0.5,
		model.PriorityStandard: 1.0,
		model.PriorityEconomy:  1.5,
	}
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SpeedKmh == 0 {
		c.SpeedKmh = DefaultSpeedKmh
	}
	if c.MaxClaimRetries == 0 {
		c.MaxClaimRetries = DefaultMaxClaimRetries
	}
	defaults := DefaultPriorityMultipliers()
	if c.PriorityMultipliers == nil {
		c.PriorityMultipliers = defaults
		return
	}
	for p, m := range defaults {
		if _, ok := c.PriorityMultipliers[p]; !ok {
			c.PriorityMultipliers[p] = m
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.SpeedKmh <= 0 {
		return fmt.Errorf("speed_kmh must be positive")
	}
	if c.MaxClaimRetries < 0 {
		return fmt.Errorf("max_claim_retries must not be negative")
	}
	for p, m := range c.PriorityMultipliers {
		if !p.Valid() {
			return fmt.Errorf("unknown priority %q in priority_multipliers", p)
		}
		if m <= 0 {
			return fmt.Errorf("priority multiplier for %s must be positive", p)
		}
	}
	return nil
}
