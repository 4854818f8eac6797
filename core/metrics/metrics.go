package metrics

import (
	"time"

	"github.com/kilianp07/ridecore/core/model"
)

// AssignmentRecord is the outcome of one request within a dispatch batch.
type AssignmentRecord struct {
	BatchID          string
	RequestID        string
	DriverID         string
	Priority         model.Priority
	Assigned         bool
	Cost             float64
	PickupDistanceKm float64
	ETAMinutes       float64
	MatchScore       float64
	Time             time.Time
}

// MetricsSink records dispatch outcomes. It is the only method every sink must
// provide; the other recorders are optional.
type MetricsSink interface {
	RecordAssignments(recs []AssignmentRecord) error
}

// SurgeRecord captures the market state computed for a batch.
type SurgeRecord struct {
	BatchID           string
	Multiplier        float64
	Active            bool
	Reason            model.SurgeReason
	DemandSupplyRatio float64
	// SupplyDemandRatio is +Inf when the batch had no requests.
	SupplyDemandRatio float64
	Health            model.CapacityHealth
	Time              time.Time
}

// SurgeRecorder records surge snapshots.
type SurgeRecorder interface {
	RecordSurge(rec SurgeRecord) error
}

// ConsensusRecord captures one consensus round.
type ConsensusRecord struct {
	Decision     string
	Participants int
	VoteShare    float64
	Confidence   float64
	QuorumMet    bool
	Time         time.Time
}

// ConsensusRecorder records consensus rounds.
type ConsensusRecorder interface {
	RecordConsensus(rec ConsensusRecord) error
}

// ConflictRecord captures one resolved conflict.
type ConflictRecord struct {
	ConflictType string
	WinnerAgent  string
	Candidates   int
	Time         time.Time
}

// ConflictRecorder records conflict resolutions.
type ConflictRecorder interface {
	RecordConflict(rec ConflictRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignments([]AssignmentRecord) error { return nil }
func (NopSink) RecordSurge(SurgeRecord) error              { return nil }
func (NopSink) RecordConsensus(ConsensusRecord) error      { return nil }
func (NopSink) RecordConflict(ConflictRecord) error        { return nil }
