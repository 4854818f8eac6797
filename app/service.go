package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridecore/config"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/events"
	coremetrics "github.com/kilianp07/ridecore/core/metrics"
	coremon "github.com/kilianp07/ridecore/core/monitoring"
	"github.com/kilianp07/ridecore/infra/logger"
	"github.com/kilianp07/ridecore/infra/metrics"
	infmon "github.com/kilianp07/ridecore/infra/monitoring"
	"github.com/kilianp07/ridecore/infra/mqtt"
	"github.com/kilianp07/ridecore/internal/eventbus"
)

// Service runs the engine behind its adapters: metrics sinks, the decision
// log and, when a broker is configured, the MQTT bridge.
type Service struct {
	Engine   *Engine
	bridge   *mqtt.Bridge
	bus      *eventbus.Bus
	sink     coremetrics.MetricsSink
	store    decisionlog.Store
	log      logger.Logger
	promAddr string
	flush    time.Duration
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logg := logger.New("service")
	mon, err := infmon.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(mon)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := decisionlog.NewStore(cfg.DecisionLog)
	if err != nil {
		return nil, fmt.Errorf("decision log: %w", err)
	}
	bus := eventbus.New()
	engine, err := NewEngine(cfg, Options{Logger: logger.New("engine"), Bus: bus, Store: store})
	if err != nil {
		bus.Close()
		_ = store.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}
	svc := &Service{
		Engine:   engine,
		bus:      bus,
		sink:     sink,
		store:    store,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
		flush:    time.Duration(cfg.Monitoring.FlushTimeoutMS) * time.Millisecond,
	}
	if cfg.MQTT.Enabled() {
		br, err := mqtt.NewBridge(cfg.MQTT, Handler{Engine: engine})
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		svc.bridge = br
	}
	return svc, nil
}

// Run starts the collectors and serves bus requests until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.bridge == nil {
		s.log.Infof("no broker configured, engine idle until shutdown")
		<-ctx.Done()
		<-collected
		return nil
	}
	surges, cancel := eventbus.SubscribeTo[events.SurgeEvent](s.bus)
	defer cancel()
	go func() {
		for ev := range surges {
			if err := s.bridge.PublishEvent("surge", ev); err != nil {
				s.log.Warnf("publish surge %s: %v", ev.BatchID, err)
			}
		}
	}()
	err := s.bridge.Run(ctx)
	<-collected
	return err
}

// Close releases the bridge, the bus and the decision log, then flushes
// pending error reports.
func (s *Service) Close() error {
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.bus.Close()
	err := s.store.Close()
	coremon.Flush(s.flush)
	return err
}
