package app

import (
	"time"

	"github.com/kilianp07/ridecore/core/dispatch"
	"github.com/kilianp07/ridecore/core/model"
)

// DispatchInput is one assignment batch. When Drivers is empty the batch
// draws from the engine's shared pool.
type DispatchInput struct {
	Requests []model.RideRequest      `json:"requests" yaml:"requests"`
	Drivers  []model.Driver           `json:"drivers,omitempty" yaml:"drivers,omitempty"`
	Market   dispatch.MarketConditions `json:"market" yaml:"market"`
}

// MatchInput scores riders against drivers. When Drivers is empty the shared
// pool is used.
type MatchInput struct {
	Riders  []model.RideRequest `json:"riders" yaml:"riders"`
	Drivers []model.Driver      `json:"drivers,omitempty" yaml:"drivers,omitempty"`
}

// MultiRiderInput asks for one shared pickup sequence.
type MultiRiderInput struct {
	Driver model.Driver        `json:"driver" yaml:"driver"`
	Riders []model.RideRequest `json:"riders" yaml:"riders"`
}

// ConsensusInput is one weighted vote.
type ConsensusInput struct {
	Proposals []model.Proposal   `json:"proposals" yaml:"proposals"`
	Weights   map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// ConflictInput ranks competing proposals. A zero Now uses the engine clock.
type ConflictInput struct {
	ConflictType string           `json:"conflict_type" yaml:"conflict_type"`
	Proposals    []model.Proposal `json:"proposals" yaml:"proposals"`
	Now          time.Time        `json:"now,omitempty" yaml:"now,omitempty"`
}

// ReleaseInput returns a driver to the shared pool.
type ReleaseInput struct {
	DriverID   string `json:"driver_id" yaml:"driver_id"`
	Passengers int    `json:"passengers" yaml:"passengers"`
}

func withDefaults(reqs []model.RideRequest) []model.RideRequest {
	out := make([]model.RideRequest, len(reqs))
	for i, r := range reqs {
		out[i] = r.WithDefaults()
	}
	return out
}
