package metrics

import (
	"context"

	"github.com/kilianp07/ridecore/core/events"
	coremetrics "github.com/kilianp07/ridecore/core/metrics"
	"github.com/kilianp07/ridecore/infra/logger"
	"github.com/kilianp07/ridecore/internal/eventbus"
)

// StartEventCollector subscribes to the bus and records engine events on sink.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.AssignmentEvent:
		recs := make([]coremetrics.AssignmentRecord, 0, len(e.Assignments))
		for _, a := range e.Assignments {
			recs = append(recs, coremetrics.AssignmentRecord{
				BatchID:          e.BatchID,
				RequestID:        a.RequestID,
				DriverID:         a.DriverID,
				Priority:         e.Priorities[a.RequestID],
				Assigned:         a.Assigned(),
				Cost:             a.Cost,
				PickupDistanceKm: a.PickupDistanceKm,
				ETAMinutes:       a.ETAMinutes,
				MatchScore:       a.MatchScore,
				Time:             e.Time,
			})
		}
		return sink.RecordAssignments(recs)
	case events.SurgeEvent:
		if r, ok := sink.(coremetrics.SurgeRecorder); ok {
			return r.RecordSurge(coremetrics.SurgeRecord{
				BatchID:           e.BatchID,
				Multiplier:        e.Surge.Multiplier,
				Active:            e.Surge.Active,
				Reason:            e.Surge.Reason,
				DemandSupplyRatio: e.Surge.DemandSupplyRatio,
				SupplyDemandRatio: e.Capacity.SupplyDemandRatio,
				Health:            e.Capacity.Health,
				Time:              e.Time,
			})
		}
	case events.ConsensusEvent:
		if r, ok := sink.(coremetrics.ConsensusRecorder); ok {
			decision := string(e.Result.Decision)
			if e.Result.Decided() {
				decision = "decided"
			}
			return r.RecordConsensus(coremetrics.ConsensusRecord{
				Decision:     decision,
				Participants: len(e.Result.Participants),
				VoteShare:    e.Result.VoteShare,
				Confidence:   e.Result.Confidence,
				QuorumMet:    e.Result.QuorumMet,
				Time:         e.Time,
			})
		}
	case events.ConflictEvent:
		if r, ok := sink.(coremetrics.ConflictRecorder); ok {
			return r.RecordConflict(coremetrics.ConflictRecord{
				ConflictType: e.ConflictType,
				WinnerAgent:  e.WinnerAgent,
				Candidates:   e.Rejected + 1,
				Time:         e.Time,
			})
		}
	}
	return nil
}
