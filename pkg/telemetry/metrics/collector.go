package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/policy/seed"
	"mercator-hq/ferry/pkg/policy/store"
)

// Collector is the main orchestrator for the Prometheus metrics of one
// ferry stage. It records store operations as a store.Observer, exposes the
// store's counters, and records handoff and seed activity.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Per-operation counters and durations
	operationMetrics *OperationMetrics

	// Region ingest/export and seed application
	handoffMetrics *HandoffMetrics
}

var _ store.Observer = (*Collector)(nil)

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "ferry",
//		Subsystem: "policy",
//	}
//	collector := metrics.NewCollector(cfg, nil)
//	svc := store.New(environment, store.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:           cfg,
		registry:         registry,
		operationMetrics: NewOperationMetrics(cfg, registry),
		handoffMetrics:   NewHandoffMetrics(cfg, registry),
	}
}

// Observe implements store.Observer.
func (c *Collector) Observe(_ context.Context, op store.Operation) {
	if !c.config.Enabled {
		return
	}

	c.operationMetrics.RecordOperation(string(op.Kind), resultLabel(op.Err), op.Duration, op.Size)
}

// RegisterStore exposes the counters of svc. It may be called once per
// registry.
func (c *Collector) RegisterStore(svc StatsSource) {
	RegisterStoreMetrics(c.config, c.registry, svc)
}

// RecordIngest records the result of ingesting a handoff region.
func (c *Collector) RecordIngest(records int, err error) {
	if !c.config.Enabled {
		return
	}

	c.handoffMetrics.RecordTransfer("ingest", records, err)
}

// RecordExport records the result of exporting to a handoff region.
func (c *Collector) RecordExport(records int, err error) {
	if !c.config.Enabled {
		return
	}

	c.handoffMetrics.RecordTransfer("export", records, err)
}

// RecordSeedApply records one seed file application.
func (c *Collector) RecordSeedApply(res seed.Result, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.handoffMetrics.RecordSeed(res, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
