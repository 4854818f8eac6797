package routing

import "fmt"

// AlternativeSpec describes a named route variant derived from the direct
// distance.
type AlternativeSpec struct {
	Name           string  `json:"name"`
	DistanceFactor float64 `json:"distance_factor"`
	SpeedKmh       float64 `json:"speed_kmh"`
}

// Config defines routing settings.
type Config struct {
	BaseSpeedKmh float64 `json:"base_speed_kmh"`
	// CongestionFactor scales how much the congestion index slows traffic.
	CongestionFactor float64           `json:"congestion_factor"`
	Alternatives     []AlternativeSpec `json:"alternatives"`
}

// DefaultAlternatives are the highway and scenic variants.
func DefaultAlternatives() []AlternativeSpec {
	return []AlternativeSpec{
		{Name: "highway", DistanceFactor: 1.1, SpeedKmh: 80},
		{Name: "scenic", DistanceFactor: 1.2, SpeedKmh: 50},
	}
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseSpeedKmh == 0 {
		c.BaseSpeedKmh = 60
	}
	if c.CongestionFactor == 0 {
		c.CongestionFactor = 0.5
	}
	if c.Alternatives == nil {
		c.Alternatives = DefaultAlternatives()
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseSpeedKmh <= 0 {
		return fmt.Errorf("base_speed_kmh must be positive")
	}
	if c.CongestionFactor < 0 {
		return fmt.Errorf("congestion_factor must not be negative")
	}
	for _, a := range c.Alternatives {
		if a.Name == "" || a.DistanceFactor <= 0 || a.SpeedKmh <= 0 {
			return fmt.Errorf("alternative %q needs a name, a positive distance factor and speed", a.Name)
		}
	}
	return nil
}
