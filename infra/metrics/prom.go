package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridecore/core/metrics"
)

// PromSink exposes engine records as Prometheus metrics.
type PromSink struct {
	driverAssignments *prometheus.CounterVec
	unassigned        prometheus.Gauge
	demandRatio       prometheus.Gauge
	surgeActive       prometheus.Gauge
	consensusRounds   *prometheus.CounterVec
	conflictWinners   *prometheus.CounterVec
}

// NewPromSink registers the sink collectors on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the collectors on reg. A nil registerer
// defaults to the global one. Collectors already registered by a previous
// sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.driverAssignments, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecore_driver_assignments_total",
		Help: "Ride requests assigned to each driver",
	}, []string{"driver_id"})); err != nil {
		return nil, err
	}
	if s.unassigned, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridecore_batch_unassigned_requests",
		Help: "Requests left unassigned by the latest dispatch batch",
	})); err != nil {
		return nil, err
	}
	if s.demandRatio, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridecore_demand_supply_ratio",
		Help: "Active requests per available driver in the latest batch",
	})); err != nil {
		return nil, err
	}
	if s.surgeActive, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ridecore_surge_active",
		Help: "1 when surge pricing is active",
	})); err != nil {
		return nil, err
	}
	if s.consensusRounds, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecore_consensus_rounds_total",
		Help: "Consensus rounds by decision",
	}, []string{"decision"})); err != nil {
		return nil, err
	}
	if s.conflictWinners, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ridecore_conflict_winners_total",
		Help: "Resolved conflicts by type and winning agent",
	}, []string{"conflict_type", "winner"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordAssignments counts assignments per driver and tracks the unassigned backlog.
func (s *PromSink) RecordAssignments(recs []coremetrics.AssignmentRecord) error {
	unassigned := 0
	for _, r := range recs {
		if !r.Assigned {
			unassigned++
			continue
		}
		s.driverAssignments.WithLabelValues(r.DriverID).Inc()
	}
	s.unassigned.Set(float64(unassigned))
	return nil
}

// RecordSurge sets the market gauges.
func (s *PromSink) RecordSurge(rec coremetrics.SurgeRecord) error {
	s.demandRatio.Set(rec.DemandSupplyRatio)
	if rec.Active {
		s.surgeActive.Set(1)
	} else {
		s.surgeActive.Set(0)
	}
	return nil
}

// RecordConsensus counts consensus rounds.
func (s *PromSink) RecordConsensus(rec coremetrics.ConsensusRecord) error {
	s.consensusRounds.WithLabelValues(rec.Decision).Inc()
	return nil
}

// RecordConflict counts conflict winners.
func (s *PromSink) RecordConflict(rec coremetrics.ConflictRecord) error {
	s.conflictWinners.WithLabelValues(rec.ConflictType, rec.WinnerAgent).Inc()
	return nil
}

