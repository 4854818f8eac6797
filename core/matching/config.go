package matching

import (
	"fmt"
	"math"

	"github.com/kilianp07/ridecore/core/factory"
)

// Config holds the scoring weights and the matcher selection.
type Config struct {
	WaitWeight      float64 `json:"wait_weight"`
	DistanceWeight  float64 `json:"distance_weight"`
	OccupancyWeight float64 `json:"occupancy_weight"`
	// MaxPickupKm is the distance at which the distance score reaches zero.
	MaxPickupKm float64 `json:"max_pickup_km"`
	// SpeedKmh converts pickup distance into an ETA.
	SpeedKmh float64 `json:"speed_kmh"`
	// Matcher selects the pair selection strategy. Empty means greedy.
	Matcher factory.ModuleConfig `json:"matcher"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.WaitWeight == 0 && c.DistanceWeight == 0 && c.OccupancyWeight == 0 {
		c.WaitWeight, c.DistanceWeight, c.OccupancyWeight = 0.4, 0.3, 0.3
	}
	if c.MaxPickupKm == 0 {
		c.MaxPickupKm = 5
	}
	if c.SpeedKmh == 0 {
		c.SpeedKmh = 30
	}
	if c.Matcher.Type == "" {
		c.Matcher.Type = GreedyName
	}
}

// Validate checks weights and limits.
func (c Config) Validate() error {
	for name, w := range map[string]float64{"wait_weight": c.WaitWeight, "distance_weight": c.DistanceWeight, "occupancy_weight": c.OccupancyWeight} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if sum := c.WaitWeight + c.DistanceWeight + c.OccupancyWeight; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("score weights must sum to 1, got %.3f", sum)
	}
	if c.MaxPickupKm <= 0 {
		return fmt.Errorf("max_pickup_km must be positive")
	}
	if c.SpeedKmh <= 0 {
		return fmt.Errorf("speed_kmh must be positive")
	}
	return nil
}
