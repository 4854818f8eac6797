package events

import (
	"time"

	"github.com/kilianp07/ridecore/core/model"
)

// AssignmentEvent is published after each dispatch batch.
type AssignmentEvent struct {
	BatchID     string             `json:"batch_id"`
	Assignments []model.Assignment `json:"assignments"`
	// Priorities maps request IDs to the priority they were dispatched with.
	Priorities map[string]model.Priority `json:"priorities"`
	Unassigned int                       `json:"unassigned"`
	Time       time.Time                 `json:"time"`
}

// SurgeEvent carries the surge state of a batch. The service relays it on
// the surge event topic.
type SurgeEvent struct {
	BatchID  string                 `json:"batch_id"`
	Surge    model.SurgeState       `json:"surge"`
	Capacity model.CapacitySnapshot `json:"capacity"`
	Time     time.Time              `json:"time"`
}

// ConsensusEvent is published for every consensus round, decided or not.
type ConsensusEvent struct {
	Result model.ConsensusResult `json:"result"`
	Time   time.Time             `json:"time"`
}

// ConflictEvent is published when a conflict has a winner.
type ConflictEvent struct {
	ConflictType string    `json:"conflict_type"`
	WinnerAgent  string    `json:"winner_agent"`
	Rejected     int       `json:"rejected"`
	Time         time.Time `json:"time"`
}
