// Package config loads the engine configuration from YAML or JSON files with
// environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ridecore/core/consensus"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/dispatch"
	"github.com/kilianp07/ridecore/core/matching"
	"github.com/kilianp07/ridecore/core/metrics"
	"github.com/kilianp07/ridecore/core/routing"
	"github.com/kilianp07/ridecore/infra/monitoring"
	"github.com/kilianp07/ridecore/infra/mqtt"
)

// EnvPrefix marks environment overrides: K_DISPATCH__SPEED_KMH=40 sets dispatch.speed_kmh.
const EnvPrefix = "K_"

type Config struct {
	Dispatch    dispatch.Config    `json:"dispatch"`
	Matching    matching.Config    `json:"matching"`
	Routing     routing.Config     `json:"routing"`
	Consensus   consensus.Config   `json:"consensus"`
	MQTT        mqtt.Config        `json:"mqtt"`
	Metrics     metrics.Config     `json:"metrics"`
	DecisionLog decisionlog.Config `json:"decision_log"`
	Monitoring  monitoring.Config  `json:"monitoring"`
}

type section interface {
	SetDefaults()
	Validate() error
}

func (c *Config) sections() map[string]section {
	return map[string]section{
		"dispatch":     &c.Dispatch,
		"matching":     &c.Matching,
		"routing":      &c.Routing,
		"consensus":    &c.Consensus,
		"mqtt":         &c.MQTT,
		"metrics":      &c.Metrics,
		"decision_log": &c.DecisionLog,
		"monitoring":   &c.Monitoring,
	}
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	for _, s := range cfg.sections() {
		s.SetDefaults()
	}
	return &cfg
}

// Load reads path, applies K_ environment overrides, then defaults and
// validates every section. An empty path loads defaults plus overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	for name, s := range cfg.sections() {
		s.SetDefaults()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return &cfg, nil
}
