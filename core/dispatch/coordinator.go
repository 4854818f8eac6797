package dispatch

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/logger"
	"github.com/kilianp07/ridecore/core/model"
)

// MarketConditions describe demand outside the current batch.
type MarketConditions struct {
	// ActiveRequests is the number of open requests in the market. Zero means
	// the batch size is used.
	ActiveRequests int     `json:"active_requests" yaml:"active_requests"`
	AvgWaitMinutes float64 `json:"avg_wait_minutes" yaml:"avg_wait_minutes"`
}

// Validate rejects negative values.
func (m MarketConditions) Validate() error {
	if m.ActiveRequests < 0 {
		return &model.ValidationError{Record: "market conditions", Field: "active_requests", Reason: "must not be negative"}
	}
	if !(m.AvgWaitMinutes >= 0) || math.IsInf(m.AvgWaitMinutes, 0) {
		return &model.ValidationError{Record: "market conditions", Field: "avg_wait_minutes", Reason: "must be finite and not negative"}
	}
	return nil
}

// Outcome is the result of one assignment batch.
type Outcome struct {
	BatchID         string                 `json:"batch_id"`
	Assignments     []model.Assignment     `json:"assignments"`
	Capacity        model.CapacitySnapshot `json:"capacity"`
	Surge           model.SurgeState       `json:"surge"`
	Recommendations []Recommendation       `json:"recommendations"`
	// Drivers is the pool state after the batch.
	Drivers []model.Driver `json:"drivers"`
}

// Unassigned counts requests left without a driver.
func (o Outcome) Unassigned() int {
	n := 0
	for _, a := range o.Assignments {
		if !a.Assigned() {
			n++
		}
	}
	return n
}

// Coordinator assigns ride requests to drivers held in a DriverPool.
type Coordinator struct {
	cfg Config
	log logger.Logger
	now func() time.Time
}

// NewCoordinator returns a coordinator. Missing config values get defaults.
func NewCoordinator(cfg Config, log logger.Logger) (*Coordinator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch config: %w", err)
	}
	return &Coordinator{cfg: cfg, log: logger.OrNop(log), now: time.Now}, nil
}

// WithClock replaces the clock stamping assignments.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// OptimizeAssignment processes requests in input order and gives each one the
// cheapest eligible driver. The chosen driver is claimed in the pool, so it
// cannot be selected again by this or any concurrent batch. Requests without
// an eligible driver are queued in order of appearance.
func (c *Coordinator) OptimizeAssignment(requests []model.RideRequest, pool *DriverPool, market MarketConditions) (Outcome, error) {
	if pool == nil {
		return Outcome{}, errors.New("driver pool is nil")
	}
	if err := model.ValidateRequests(requests); err != nil {
		return Outcome{}, err
	}
	if err := market.Validate(); err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	out := Outcome{BatchID: uuid.NewString(), Assignments: make([]model.Assignment, 0, len(requests))}
	before := pool.Snapshot()
	drivers := make([]model.Driver, len(before))
	for i, r := range before {
		drivers[i] = r.Driver
	}
	out.Capacity = CapacityAnalysis(drivers, len(requests))

	queue := 0
	for _, req := range requests {
		asn, err := c.assign(req, pool)
		if err != nil {
			return Outcome{}, fmt.Errorf("assign %s: %w", req.ID, err)
		}
		if !asn.Assigned() {
			queue++
			if asn.Reason == "" {
				asn.Reason = model.ReasonNoAvailableDrivers
			}
			asn.QueuePosition = queue
			c.log.Warnf("request %s queued at position %d: %s", req.ID, queue, asn.Reason)
		}
		observeAssignment(req.Priority, asn)
		out.Assignments = append(out.Assignments, asn)
	}

	active := market.ActiveRequests
	if active == 0 {
		active = len(requests)
	}
	out.Surge = SurgeAnalysis(active, out.Capacity.AvailableDrivers, market.AvgWaitMinutes)
	out.Recommendations = Recommendations(out.Capacity, out.Surge)
	out.Drivers = pool.Drivers()
	observeBatch(out, time.Since(start))

	c.log.Infof("batch %s: %d requests, %d unassigned, surge %.2fx (%s)",
		out.BatchID, len(requests), queue, out.Surge.Multiplier, out.Surge.Reason)
	return out, nil
}

type candidate struct {
	ref      DriverRef
	cost     float64
	distance float64
}

// selectDriver returns the minimum-cost eligible driver. Strict comparison
// keeps the first driver in pool order on ties.
func (c *Coordinator) selectDriver(req model.RideRequest, refs []DriverRef) (candidate, bool) {
	var best candidate
	found := false
	for _, ref := range refs {
		d := ref.Driver
		if !d.Available() || d.VehicleCapacity < req.PassengerCount {
			continue
		}
		dist := geo.Haversine(d.Location, req.Pickup)
		cost := c.Cost(dist, d, req.Priority)
		if !found || cost < best.cost {
			best = candidate{ref: ref, cost: cost, distance: dist}
			found = true
		}
	}
	return best, found
}

// claimer is the part of DriverPool used by assign.
type claimer interface {
	Snapshot() []DriverRef
	Claim(index int, version uint64, passengers int) (model.Driver, error)
}

func (c *Coordinator) assign(req model.RideRequest, pool claimer) (model.Assignment, error) {
	asn := model.Assignment{RequestID: req.ID, AssignedAt: c.now()}
	for attempt := 0; attempt <= c.cfg.MaxClaimRetries; attempt++ {
		best, ok := c.selectDriver(req, pool.Snapshot())
		if !ok {
			return asn, nil
		}
		claimed, err := pool.Claim(best.ref.Index, best.ref.Version, req.PassengerCount)
		if err != nil {
			if errors.Is(err, ErrStaleVersion) || errors.Is(err, ErrDriverUnavailable) {
				claimConflicts.Inc()
				c.log.Debugf("claim for %s lost (attempt %d): %v", req.ID, attempt+1, err)
				continue
			}
			return asn, err
		}
		// quality is judged on the driver as it was selected
		score, quality := MatchQuality(best.distance, best.ref.Driver, req)
		asn.DriverID = claimed.ID
		asn.Cost = best.cost
		asn.PickupDistanceKm = best.distance
		asn.ETAMinutes = c.ETAMinutes(best.distance)
		asn.MatchScore = score
		asn.MatchQuality = quality
		c.log.Debugw("request assigned", map[string]any{
			"request_id":  req.ID,
			"driver_id":   claimed.ID,
			"cost":        best.cost,
			"distance_km": best.distance,
			"quality":     string(quality),
		})
		return asn, nil
	}
	c.log.Warnf("request %s: claim retries exhausted", req.ID)
	asn.Reason = model.ReasonClaimConflict
	return asn, nil
}
