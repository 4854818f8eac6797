// Package app composes the core components into the engine and wires it to
// its adapters.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridecore/config"
	"github.com/kilianp07/ridecore/core/consensus"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/dispatch"
	"github.com/kilianp07/ridecore/core/events"
	"github.com/kilianp07/ridecore/core/logger"
	"github.com/kilianp07/ridecore/core/matching"
	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/core/monitoring"
	"github.com/kilianp07/ridecore/core/routing"
	"github.com/kilianp07/ridecore/internal/eventbus"
)

// Options carries the optional collaborators of an Engine.
type Options struct {
	Logger logger.Logger
	Bus    eventbus.EventBus
	Store  decisionlog.Store
	Clock  func() time.Time
}

// Engine is the single entry point to the dispatch, matching, routing and
// consensus components. Every call returns a model.Result envelope.
type Engine struct {
	coordinator *dispatch.Coordinator
	matcher     *matching.Optimizer
	router      *routing.Optimizer
	resolver    *consensus.Resolver
	pool        *dispatch.DriverPool
	bus         eventbus.EventBus
	store       decisionlog.Store
	log         logger.Logger
	now         func() time.Time
}

// NewEngine builds the components from cfg. A nil cfg uses config.Default.
func NewEngine(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log := logger.OrNop(opts.Logger)
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	coord, err := dispatch.NewCoordinator(cfg.Dispatch, log)
	if err != nil {
		return nil, err
	}
	coord.WithClock(now)
	matcher, err := matching.NewOptimizer(cfg.Matching, log)
	if err != nil {
		return nil, err
	}
	router, err := routing.NewOptimizer(cfg.Routing, log)
	if err != nil {
		return nil, err
	}
	resolver, err := consensus.NewResolver(cfg.Consensus, log)
	if err != nil {
		return nil, err
	}
	resolver.Clock = now
	pool, err := dispatch.NewDriverPool(nil)
	if err != nil {
		return nil, err
	}
	store := opts.Store
	if store == nil {
		store = decisionlog.NopStore{}
	}
	return &Engine{
		coordinator: coord,
		matcher:     matcher,
		router:      router,
		resolver:    resolver,
		pool:        pool,
		bus:         opts.Bus,
		store:       store,
		log:         log,
		now:         now,
	}, nil
}

// call runs fn under the engine guarantees: a cancelled context is refused,
// a panic becomes ErrInternal and the status is derived from degraded.
func call[T any](ctx context.Context, e *Engine, op string, fn func() (T, bool, error)) (res model.Result[T], err error) {
	at := e.now()
	if err := ctx.Err(); err != nil {
		return model.Failed[T](at, err), fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %w: %v", op, ErrInternal, r)
			e.log.Errorf("%v", err)
			monitoring.CaptureException(err, map[string]string{"operation": op})
			res = model.Failed[T](at, err)
		}
	}()
	out, degraded, err := fn()
	if err != nil {
		if !model.IsValidation(err) {
			monitoring.CaptureException(err, map[string]string{"operation": op})
		}
		return model.Failed[T](at, err), fmt.Errorf("%s: %w", op, err)
	}
	if degraded {
		return model.Degraded(at, out), nil
	}
	return model.Completed(at, out), nil
}

// Dispatch assigns a batch of requests. Requests left without a driver make
// the result degraded.
func (e *Engine) Dispatch(ctx context.Context, in DispatchInput) (model.Result[dispatch.Outcome], error) {
	res, err := call(ctx, e, "dispatch", func() (dispatch.Outcome, bool, error) {
		pool := e.pool
		if len(in.Drivers) > 0 {
			p, err := dispatch.NewDriverPool(in.Drivers)
			if err != nil {
				return dispatch.Outcome{}, false, err
			}
			pool = p
		}
		reqs := withDefaults(in.Requests)
		out, err := e.coordinator.OptimizeAssignment(reqs, pool, in.Market)
		if err != nil {
			return dispatch.Outcome{}, false, err
		}
		e.publishDispatch(reqs, out)
		return out, out.Unassigned() > 0, nil
	})
	if err == nil {
		e.audit(dispatchRecord(res))
	}
	return res, err
}

func (e *Engine) publishDispatch(reqs []model.RideRequest, out dispatch.Outcome) {
	if e.bus == nil {
		return
	}
	at := e.now()
	prio := make(map[string]model.Priority, len(reqs))
	for _, r := range reqs {
		prio[r.ID] = r.Priority
	}
	e.bus.Publish(events.AssignmentEvent{
		BatchID:     out.BatchID,
		Assignments: out.Assignments,
		Priorities:  prio,
		Unassigned:  out.Unassigned(),
		Time:        at,
	})
	e.bus.Publish(events.SurgeEvent{BatchID: out.BatchID, Surge: out.Surge, Capacity: out.Capacity, Time: at})
}

// Match scores riders against drivers and selects disjoint pairs.
func (e *Engine) Match(ctx context.Context, in MatchInput) (model.Result[[]matching.Match], error) {
	res, err := call(ctx, e, "match", func() ([]matching.Match, bool, error) {
		drivers := in.Drivers
		if len(drivers) == 0 {
			drivers = e.pool.Drivers()
		}
		m, err := e.matcher.FindBestMatches(withDefaults(in.Riders), drivers)
		return m, false, err
	})
	if err == nil {
		e.audit(matchRecord(res))
	}
	return res, err
}

// PlanMultiRider sequences shared pickups. A plan rejected for capacity makes
// the result degraded.
func (e *Engine) PlanMultiRider(ctx context.Context, in MultiRiderInput) (model.Result[matching.RoutePlan], error) {
	res, err := call(ctx, e, "multi_route", func() (matching.RoutePlan, bool, error) {
		plan, err := e.matcher.OptimizeMultiRiderRoutes(in.Driver, withDefaults(in.Riders))
		return plan, err == nil && !plan.Success, err
	})
	if err == nil {
		e.audit(multiRouteRecord(res))
	}
	return res, err
}

// Route computes a route with ETA, directions and alternatives.
func (e *Engine) Route(ctx context.Context, req routing.Request) (model.Result[routing.Route], error) {
	res, err := call(ctx, e, "route", func() (routing.Route, bool, error) {
		r, err := e.router.Optimize(req)
		return r, false, err
	})
	if err == nil {
		e.audit(routeRecord(res))
	}
	return res, err
}

// Consensus runs a weighted vote. Any outcome other than a decided option
// makes the result degraded.
func (e *Engine) Consensus(ctx context.Context, in ConsensusInput) (model.Result[model.ConsensusResult], error) {
	res, err := call(ctx, e, "consensus", func() (model.ConsensusResult, bool, error) {
		r, err := e.resolver.CalculateConsensus(in.Proposals, in.Weights)
		if err != nil {
			return model.ConsensusResult{}, false, err
		}
		if e.bus != nil {
			e.bus.Publish(events.ConsensusEvent{Result: r, Time: e.now()})
		}
		return r, !r.Decided(), nil
	})
	if err == nil {
		e.audit(consensusRecord(res))
	}
	return res, err
}

// ResolveConflicts ranks competing proposals by conflict score.
func (e *Engine) ResolveConflicts(ctx context.Context, in ConflictInput) (model.Result[consensus.ConflictResolution], error) {
	res, err := call(ctx, e, "conflicts", func() (consensus.ConflictResolution, bool, error) {
		now := in.Now
		if now.IsZero() {
			now = e.now()
		}
		r, err := e.resolver.ResolveConflicts(in.Proposals, in.ConflictType, now)
		if err != nil {
			return consensus.ConflictResolution{}, false, err
		}
		if e.bus != nil && r.Winner != nil {
			e.bus.Publish(events.ConflictEvent{
				ConflictType: r.ConflictType,
				WinnerAgent:  r.Winner.Proposal.AgentID,
				Rejected:     len(r.Rejected),
				Time:         e.now(),
			})
		}
		return r, false, nil
	})
	if err == nil {
		e.audit(conflictRecord(res))
	}
	return res, err
}

// UpsertDriver adds or replaces a driver in the shared pool.
func (e *Engine) UpsertDriver(ctx context.Context, d model.Driver) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.pool.Upsert(d)
}

// ReleaseDriver returns a driver of the shared pool to service after a trip.
func (e *Engine) ReleaseDriver(ctx context.Context, in ReleaseInput) (model.Driver, error) {
	if err := ctx.Err(); err != nil {
		return model.Driver{}, err
	}
	return e.pool.Release(in.DriverID, in.Passengers)
}

// Drivers returns a copy of the shared pool.
func (e *Engine) Drivers() []model.Driver { return e.pool.Drivers() }

// Decisions queries the decision log.
func (e *Engine) Decisions(ctx context.Context, q decisionlog.Query) ([]decisionlog.Record, error) {
	return e.store.Query(ctx, q)
}
