package mqtt

import "github.com/prometheus/client_golang/prometheus"

// Envelope outcomes.
const (
	outcomeHandled  = "handled"
	outcomeExpired  = "expired"
	outcomeInvalid  = "invalid"
	outcomeRejected = "rejected"
)

var (
	envelopesTotal  *prometheus.CounterVec
	publishFailures prometheus.Counter
)

func newCollectors() (*prometheus.CounterVec, prometheus.Counter) {
	envelopes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridecore_mqtt_envelopes_total",
			Help: "Request envelopes received by the MQTT bridge",
		},
		[]string{"kind", "outcome"},
	)
	failures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ridecore_mqtt_publish_failures_total",
			Help: "Publishes that failed after every retry",
		},
	)
	return envelopes, failures
}

func init() {
	envelopesTotal, publishFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers bridge metrics on reg, or the default registerer when nil.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(envelopesTotal, publishFailures)
}

// ResetMetrics reinitializes the collectors for tests and registers them on reg if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	envelopesTotal, publishFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
