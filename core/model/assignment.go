package model

import (
	"encoding/json"
	"math"
	"time"
)

// MatchQuality buckets a 0-100 match score.
type MatchQuality string

const (
	QualityExcellent MatchQuality = "excellent"
	QualityGood      MatchQuality = "good"
	QualityFair      MatchQuality = "fair"
	QualityPoor      MatchQuality = "poor"
)

// QualityFor buckets score at 85/70/50.
func QualityFor(score float64) MatchQuality {
	switch {
	case score >= 85:
		return QualityExcellent
	case score >= 70:
		return QualityGood
	case score >= 50:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Reasons carried by unassigned records.
const (
	// ReasonNoAvailableDrivers marks a request no driver was eligible for.
	ReasonNoAvailableDrivers = "no_available_drivers"
	// ReasonClaimConflict marks a request whose selected drivers were all
	// taken by concurrent batches before the claim retries ran out.
	ReasonClaimConflict = "claim_conflict"
)

// Assignment records the outcome of dispatching a single request.
type Assignment struct {
	RequestID        string       `json:"request_id"`
	DriverID         string       `json:"driver_id,omitempty"`
	Cost             float64      `json:"cost"`
	PickupDistanceKm float64      `json:"pickup_distance_km"`
	ETAMinutes       float64      `json:"eta_minutes"`
	MatchScore       float64      `json:"match_score"`
	MatchQuality     MatchQuality `json:"match_quality,omitempty"`
	AssignedAt       time.Time    `json:"assigned_at"`
	Reason           string       `json:"reason,omitempty"`
	QueuePosition    int          `json:"queue_position,omitempty"`
}

// Assigned reports whether a driver was selected.
func (a Assignment) Assigned() bool { return a.DriverID != "" }

// CapacityStatus classifies the supply/demand ratio.
type CapacityStatus string

const (
	CapacityConstrained CapacityStatus = "constrained"
	CapacityTight       CapacityStatus = "tight"
	CapacityBalanced    CapacityStatus = "balanced"
	CapacitySurplus     CapacityStatus = "surplus"
)

// CapacityHealth is the operational reading of a CapacityStatus.
type CapacityHealth string

const (
	HealthCritical CapacityHealth = "critical"
	HealthWarning  CapacityHealth = "warning"
	HealthHealthy  CapacityHealth = "healthy"
	HealthOptimal  CapacityHealth = "optimal"
)

// CapacitySnapshot is derived per call and never mutated.
type CapacitySnapshot struct {
	TotalDrivers      int            `json:"total_drivers"`
	AvailableDrivers  int            `json:"available_drivers"`
	TotalRequests     int            `json:"total_requests"`
	SupplyDemandRatio float64        `json:"supply_demand_ratio"`
	Status            CapacityStatus `json:"status"`
	Health            CapacityHealth `json:"health"`
}

// Unbounded reports whether there were no requests to compare supply with.
func (c CapacitySnapshot) Unbounded() bool { return math.IsInf(c.SupplyDemandRatio, 1) }

type capacityAlias CapacitySnapshot

type capacityJSON struct {
	capacityAlias
	SupplyDemandRatio *float64 `json:"supply_demand_ratio"`
}

// MarshalJSON encodes an unbounded ratio as null.
func (c CapacitySnapshot) MarshalJSON() ([]byte, error) {
	out := capacityJSON{capacityAlias: capacityAlias(c)}
	if !c.Unbounded() {
		r := c.SupplyDemandRatio
		out.SupplyDemandRatio = &r
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null ratio back as +Inf.
func (c *CapacitySnapshot) UnmarshalJSON(data []byte) error {
	var in capacityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = CapacitySnapshot(in.capacityAlias)
	c.SupplyDemandRatio = math.Inf(1)
	if in.SupplyDemandRatio != nil {
		c.SupplyDemandRatio = *in.SupplyDemandRatio
	}
	return nil
}

// SurgeReason explains a surge multiplier.
type SurgeReason string

const (
	SurgeNormal            SurgeReason = "normal_operations"
	SurgeHighUnassigned    SurgeReason = "high_unassigned_requests"
	SurgeExtendedWaitTimes SurgeReason = "extended_wait_times"
	SurgeHighDemand        SurgeReason = "high_demand"
)

// SurgeState is the pricing signal for the current market.
type SurgeState struct {
	Multiplier        float64     `json:"multiplier"`
	Active            bool        `json:"active"`
	Reason            SurgeReason `json:"reason"`
	DemandSupplyRatio float64     `json:"demand_supply_ratio"`
}

type surgeAlias SurgeState

type surgeJSON struct {
	surgeAlias
	DemandSupplyRatio *float64 `json:"demand_supply_ratio"`
}

// MarshalJSON encodes a ratio with no available drivers as null.
func (s SurgeState) MarshalJSON() ([]byte, error) {
	out := surgeJSON{surgeAlias: surgeAlias(s)}
	if !math.IsInf(s.DemandSupplyRatio, 0) && !math.IsNaN(s.DemandSupplyRatio) {
		r := s.DemandSupplyRatio
		out.DemandSupplyRatio = &r
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a null ratio back as +Inf.
func (s *SurgeState) UnmarshalJSON(data []byte) error {
	var in surgeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = SurgeState(in.surgeAlias)
	s.DemandSupplyRatio = math.Inf(1)
	if in.DemandSupplyRatio != nil {
		s.DemandSupplyRatio = *in.DemandSupplyRatio
	}
	return nil
}
