package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridecore/core/consensus"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/dispatch"
	"github.com/kilianp07/ridecore/core/matching"
	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/core/routing"
)

const auditTimeout = 2 * time.Second

// audit appends rec to the decision log under its own deadline, independent
// of the caller's context. Failures are logged, never returned.
func (e *Engine) audit(rec decisionlog.Record, err error) {
	if err != nil {
		e.log.Warnf("build decision record: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	if err := e.store.Append(ctx, rec); err != nil {
		e.log.Warnf("append %s decision %s: %v", rec.Kind, rec.ID, err)
	}
}

func newRecord[T any](kind decisionlog.Kind, res model.Result[T]) (decisionlog.Record, error) {
	rec, err := decisionlog.NewRecord(kind, res.Timestamp, res.Output)
	rec.Status = string(res.Status)
	return rec, err
}

func dispatchRecord(res model.Result[dispatch.Outcome]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindDispatch, res)
	out := res.Output
	for _, a := range out.Assignments {
		rec.RequestIDs = append(rec.RequestIDs, a.RequestID)
		if a.Assigned() {
			rec.DriverIDs = append(rec.DriverIDs, a.DriverID)
		}
	}
	rec.Decision = fmt.Sprintf("%d/%d assigned, surge %.2fx", len(out.Assignments)-out.Unassigned(), len(out.Assignments), out.Surge.Multiplier)
	return rec, err
}

func matchRecord(res model.Result[[]matching.Match]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindMatch, res)
	for _, m := range res.Output {
		rec.RequestIDs = append(rec.RequestIDs, m.RiderID)
		rec.DriverIDs = append(rec.DriverIDs, m.DriverID)
	}
	rec.Decision = fmt.Sprintf("%d pairs", len(res.Output))
	return rec, err
}

func multiRouteRecord(res model.Result[matching.RoutePlan]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindMultiRoute, res)
	plan := res.Output
	rec.DriverIDs = []string{plan.DriverID}
	for _, s := range plan.Stops {
		rec.RequestIDs = append(rec.RequestIDs, s.RiderID)
	}
	rec.Decision = "accepted"
	if !plan.Success {
		rec.Decision = plan.Reason
	}
	return rec, err
}

func routeRecord(res model.Result[routing.Route]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindRoute, res)
	rec.Decision = fmt.Sprintf("%.2f km, %.1f min", res.Output.TotalDistanceKm, res.Output.ETA.Minutes)
	return rec, err
}

func consensusRecord(res model.Result[model.ConsensusResult]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindConsensus, res)
	rec.AgentIDs = res.Output.Participants
	rec.Decision = res.Output.Decision
	return rec, err
}

func conflictRecord(res model.Result[consensus.ConflictResolution]) (decisionlog.Record, error) {
	rec, err := newRecord(decisionlog.KindConflict, res)
	r := res.Output
	if r.Winner != nil {
		rec.AgentIDs = append(rec.AgentIDs, r.Winner.Proposal.AgentID)
		rec.Decision = r.Winner.Proposal.Option
	}
	for _, p := range r.Rejected {
		rec.AgentIDs = append(rec.AgentIDs, p.Proposal.AgentID)
	}
	return rec, err
}
