// Package metrics defines the sink interfaces used to export engine activity.
// Sinks like PromSink and InfluxSink record assignments, surge snapshots and
// consensus rounds and can be combined with NewMultiSink. NewMetricsSink
// returns a MultiSink automatically when several sinks are configured.
package metrics
