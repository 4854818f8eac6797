package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/model"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `dispatch:
  speed_kmh: 40
  priority_multipliers:
    urgent: 0.4
    standard: 1
    economy: 2
  max_claim_retries: 5
matching:
  wait_weight: 0.5
  distance_weight: 0.25
  occupancy_weight: 0.25
  matcher:
    type: lp
    conf:
      max_edges: 100
routing:
  base_speed_kmh: 50
consensus:
  quorum_size: 3
  recency_window: 30m
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "engine-1"
  qos:
    request: 1
    response: 0
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: nop
decision_log:
  backend: memory
  memory_capacity: 500
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"dispatch.speed_kmh", cfg.Dispatch.SpeedKmh, 40.0},
		{"dispatch.urgent", cfg.Dispatch.PriorityMultipliers[model.PriorityUrgent], 0.4},
		{"dispatch.retries", cfg.Dispatch.MaxClaimRetries, 5},
		{"matching.wait_weight", cfg.Matching.WaitWeight, 0.5},
		{"matching.matcher", cfg.Matching.Matcher.Type, "lp"},
		{"matching.max_pickup_km default", cfg.Matching.MaxPickupKm, 5.0},
		{"routing.base_speed", cfg.Routing.BaseSpeedKmh, 50.0},
		{"routing.alternatives default", len(cfg.Routing.Alternatives), 2},
		{"consensus.quorum", cfg.Consensus.QuorumSize, 3},
		{"consensus.recency", cfg.Consensus.RecencyWindow, 30 * time.Minute},
		{"consensus.min_confidence default", cfg.Consensus.MinConfidence, 0.6},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "engine-1"},
		{"mqtt.qos.response", cfg.MQTT.QoS["response"], byte(0)},
		{"mqtt.topic_prefix default", cfg.MQTT.TopicPrefix, "ridecore"},
		{"metrics.addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 1},
		{"decision_log.backend", cfg.DecisionLog.Backend, decisionlog.BackendMemory},
		{"decision_log.capacity", cfg.DecisionLog.MemoryCapacity, 500},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"dispatch":{"speed_kmh":25},"decision_log":{"backend":"jsonl","path":"audit/decisions.jsonl"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.Dispatch.SpeedKmh)
	assert.Equal(t, "audit/decisions.jsonl", cfg.DecisionLog.Path)
	assert.Equal(t, 100, cfg.DecisionLog.MaxSizeMB)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "dispatch:\n  speed_kmh: 40\n")
	t.Setenv("K_DISPATCH__SPEED_KMH", "55")
	t.Setenv("K_MQTT__TOPIC_PREFIX", "fleet")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 55.0, cfg.Dispatch.SpeedKmh)
	assert.Equal(t, "fleet", cfg.MQTT.TopicPrefix)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeFile(t, "config.yaml", "consensus:\n  quorum_size: 1\n"))
	assert.ErrorContains(t, err, "consensus")

	_, err = Load(writeFile(t, "config.yaml", "decision_log:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "decision_log")

	_, err = Load(writeFile(t, "config.yaml", "monitoring:\n  traces_sample_rate: 2\n"))
	assert.ErrorContains(t, err, "monitoring")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30.0, cfg.Dispatch.SpeedKmh)
	assert.Equal(t, "greedy", cfg.Matching.Matcher.Type)
	assert.Equal(t, decisionlog.BackendNone, cfg.DecisionLog.Backend)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Empty(t, cfg.Monitoring.DSN)
	assert.Equal(t, "production", cfg.Monitoring.Environment)
}
