package consensus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ridecore/core/model"
)

var (
	decisionsTotal     *prometheus.CounterVec
	decisionConfidence prometheus.Histogram
	conflictsResolved  *prometheus.CounterVec
)

func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, *prometheus.CounterVec) {
	dec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecore_consensus_decisions_total",
			Help: "Consensus rounds by outcome",
		},
		[]string{"outcome", "quorum_met"},
	)
	conf := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridecore_consensus_confidence",
			Help:    "Confidence of consensus rounds that met quorum",
			Buckets: []float64{0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)
	conflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecore_conflicts_resolved_total",
			Help: "Conflict resolutions by conflict type",
		},
		[]string{"conflict_type"},
	)
	return dec, conf, conflicts
}

func init() {
	decisionsTotal, decisionConfidence, conflictsResolved = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers consensus metrics on reg, or on the default
// registerer when reg is nil.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(decisionsTotal, decisionConfidence, conflictsResolved)
}

// ResetMetrics reinitializes collectors for tests.
func ResetMetrics(reg prometheus.Registerer) {
	decisionsTotal, decisionConfidence, conflictsResolved = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observeDecision(r model.ConsensusResult) {
	outcome := "decided"
	if !r.Decided() {
		outcome = r.Decision
	}
	decisionsTotal.WithLabelValues(outcome, strconv.FormatBool(r.QuorumMet)).Inc()
	if r.QuorumMet {
		decisionConfidence.Observe(r.Confidence)
	}
}

func observeConflict(conflictType string, n int) {
	if n == 0 {
		return
	}
	conflictsResolved.WithLabelValues(conflictType).Inc()
}
