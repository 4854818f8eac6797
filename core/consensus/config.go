package consensus

import (
	"fmt"
	"time"

	"github.com/kilianp07/ridecore/core/model"
)

// Config defines the voting and conflict scoring parameters.
type Config struct {
	// QuorumSize is the minimum number of proposals for a decision.
	QuorumSize int `json:"quorum_size"`
	// MinConfidence marks decisions below it as weak consensus.
	MinConfidence float64 `json:"min_confidence"`
	// RecencyWindow is the age at which the recency score reaches zero.
	RecencyWindow time.Duration `json:"recency_window"`
	// Reputation is the fixed reputation component of conflict scores.
	Reputation float64 `json:"reputation"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.QuorumSize == 0 {
		c.QuorumSize = 2
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.6
	}
	if c.RecencyWindow == 0 {
		c.RecencyWindow = time.Hour
	}
	if c.Reputation == 0 {
		c.Reputation = 0.5
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.QuorumSize < 2 {
		return fmt.Errorf("quorum_size must be at least 2")
	}
	if !model.Within(c.MinConfidence, 0, 1) {
		return fmt.Errorf("min_confidence must be within [0,1]")
	}
	if c.RecencyWindow <= 0 {
		return fmt.Errorf("recency_window must be positive")
	}
	if !model.Within(c.Reputation, 0, 1) {
		return fmt.Errorf("reputation must be within [0,1]")
	}
	return nil
}
