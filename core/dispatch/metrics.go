package dispatch

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ridecore/core/model"
)

var (
	assignmentsTotal *prometheus.CounterVec
	assignmentCost   *prometheus.HistogramVec
	pickupDistance   prometheus.Histogram
	surgeMultiplier  prometheus.Gauge
	batchLatency     prometheus.Histogram
	claimConflicts   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Histogram, prometheus.Gauge, prometheus.Histogram, prometheus.Counter) {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecore_assignments_total",
			Help: "Ride requests processed by the dispatch coordinator",
		},
		[]string{"priority", "assigned"},
	)
	cost := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridecore_assignment_cost",
			Help:    "Cost of the selected driver per assignment",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"priority"},
	)
	dist := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecore_pickup_distance_km",
			Help:    "Great-circle pickup distance of assigned drivers",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20},
		},
	)
	surge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ridecore_surge_multiplier",
			Help: "Surge multiplier computed by the latest dispatch batch",
		},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecore_dispatch_batch_seconds",
			Help:    "Wall time spent assigning one batch",
			Buckets: prometheus.DefBuckets,
		},
	)
	conflicts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ridecore_driver_claim_conflicts_total",
			Help: "Driver claims lost to a concurrent batch",
		},
	)
	return total, cost, dist, surge, lat, conflicts
}

func init() {
	assignmentsTotal, assignmentCost, pickupDistance, surgeMultiplier, batchLatency, claimConflicts = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(assignmentsTotal, assignmentCost, pickupDistance, surgeMultiplier, batchLatency, claimConflicts)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	assignmentsTotal, assignmentCost, pickupDistance, surgeMultiplier, batchLatency, claimConflicts = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observeAssignment(p model.Priority, a model.Assignment) {
	assignmentsTotal.WithLabelValues(string(p), strconv.FormatBool(a.Assigned())).Inc()
	if a.Assigned() {
		assignmentCost.WithLabelValues(string(p)).Observe(a.Cost)
		pickupDistance.Observe(a.PickupDistanceKm)
	}
}

func observeBatch(o Outcome, elapsed time.Duration) {
	surgeMultiplier.Set(o.Surge.Multiplier)
	batchLatency.Observe(elapsed.Seconds())
}
