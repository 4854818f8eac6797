package routing

import "fmt"

// Severity grades current traffic.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeveritySevere   Severity = "severe"
)

var severityConfidence = map[Severity]float64{
	SeverityLow:      0.95,
	SeverityModerate: 0.85,
	SeverityHigh:     0.70,
	SeveritySevere:   0.55,
}

// Confidence is the ETA confidence for the severity level.
func (s Severity) Confidence() (float64, error) {
	c, ok := severityConfidence[s]
	if !ok {
		return 0, fmt.Errorf("unknown traffic severity %q", s)
	}
	return c, nil
}

// Traffic describes the conditions along the route.
type Traffic struct {
	// CongestionIndex is 0 for free-flowing traffic and grows with congestion.
	CongestionIndex float64  `json:"congestion_index" yaml:"congestion_index"`
	Severity        Severity `json:"severity" yaml:"severity"`
}

// ETA is an arrival estimate.
type ETA struct {
	Minutes          float64 `json:"minutes"`
	AdjustedSpeedKmh float64 `json:"adjusted_speed_kmh"`
	Confidence       float64 `json:"confidence"`
}

// EstimateETA converts a distance into minutes under traffic.
func (o *Optimizer) EstimateETA(distanceKm float64, t Traffic) (ETA, error) {
	conf, err := t.Severity.Confidence()
	if err != nil {
		return ETA{}, err
	}
	speed := o.cfg.BaseSpeedKmh / (1 + t.CongestionIndex*o.cfg.CongestionFactor)
	return ETA{
		Minutes:          distanceKm / speed * 60,
		AdjustedSpeedKmh: speed,
		Confidence:       conf,
	}, nil
}
