package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/policy/seed"
)

// HandoffMetrics tracks traffic across stage boundaries and seed files.
//
// Metrics:
//   - ferry_policy_handoff_records_total: Records ingested or exported
//   - ferry_policy_handoff_failures_total: Failed ingests or exports
//   - ferry_policy_seed_entries_total: Seed entries by outcome
//   - ferry_policy_seed_apply_duration_seconds: Seed application duration
type HandoffMetrics struct {
	recordsTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	seedEntries   *prometheus.CounterVec
	seedDuration  prometheus.Histogram
}

// NewHandoffMetrics creates and registers handoff metrics with the provided
// registry.
func NewHandoffMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HandoffMetrics {
	hm := &HandoffMetrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "handoff_records_total",
				Help:      "Total number of handoff records transferred",
			},
			[]string{"direction"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "handoff_failures_total",
				Help:      "Total number of failed handoff transfers",
			},
			[]string{"direction"},
		),

		seedEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "seed_entries_total",
				Help:      "Total number of seed entries applied, by outcome",
			},
			[]string{"outcome"},
		),

		seedDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "seed_apply_duration_seconds",
				Help:      "Duration of seed file application in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to 1.6s
			},
		),
	}

	registry.MustRegister(
		hm.recordsTotal,
		hm.failuresTotal,
		hm.seedEntries,
		hm.seedDuration,
	)

	return hm
}

// RecordTransfer records an ingest or export. Records transferred before a
// failure are still counted.
func (hm *HandoffMetrics) RecordTransfer(direction string, records int, err error) {
	if records > 0 {
		hm.recordsTotal.WithLabelValues(direction).Add(float64(records))
	}
	if err != nil {
		hm.failuresTotal.WithLabelValues(direction).Inc()
	}
}

// RecordSeed records a seed application.
func (hm *HandoffMetrics) RecordSeed(res seed.Result, duration time.Duration) {
	hm.seedEntries.WithLabelValues("set").Add(float64(res.Set))
	hm.seedEntries.WithLabelValues("removed").Add(float64(res.Removed))
	hm.seedEntries.WithLabelValues("absent").Add(float64(res.Absent))
	hm.seedEntries.WithLabelValues("failed").Add(float64(res.Failed))
	hm.seedDuration.Observe(duration.Seconds())
}
