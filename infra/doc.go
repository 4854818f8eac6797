// Package infra holds the adapters that connect the engine to the outside:
// the MQTT request bridge, Prometheus and InfluxDB sinks, Sentry error
// reporting and the log backends. Adapters implement interfaces declared
// under core and never reach back into app.
package infra
