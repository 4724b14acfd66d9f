package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/policy/store"
)

// StatsSource is implemented by *store.Service.
type StatsSource interface {
	Stats() store.Stats
}

// RegisterStoreMetrics registers collectors that read src at scrape time.
//
// Metrics:
//   - ferry_policy_entries: Live policies
//   - ferry_policy_bridged_entries: Live policies whose payload is borrowed
//     from a handoff region
//   - ferry_policy_owned_bytes: Payload bytes held by the store
//   - ferry_policy_pending_free: Unlinked entries awaiting release
//   - ferry_policy_registrations: Active notification registrations
//   - ferry_policy_tombstones: Registrations awaiting the sweep
//   - ferry_policy_callbacks_delivered_total: Callback invocations
//   - ferry_policy_dispatch_aborted_total: Walks stopped by a nested change
//   - ferry_policy_registration_sweeps_total: Tombstone compactions
func RegisterStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, src StatsSource) {
	gauge := func(name, help string, value func(store.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, func() float64 { return value(src.Stats()) })
	}
	counter := func(name, help string, value func(store.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(src.Stats())) })
	}

	registry.MustRegister(
		gauge("entries", "Number of live policies",
			func(s store.Stats) float64 { return float64(s.Entries) }),
		gauge("bridged_entries", "Number of live policies backed by a handoff region",
			func(s store.Stats) float64 { return float64(s.Bridged) }),
		gauge("owned_bytes", "Payload bytes owned by the store",
			func(s store.Stats) float64 { return float64(s.OwnedBytes) }),
		gauge("pending_free", "Unlinked policies whose release is deferred",
			func(s store.Stats) float64 { return float64(s.PendingFree) }),
		gauge("registrations", "Number of active notification registrations",
			func(s store.Stats) float64 { return float64(s.Dispatch.Registrations) }),
		gauge("tombstones", "Notification registrations awaiting the sweep",
			func(s store.Stats) float64 { return float64(s.Dispatch.Tombstones) }),
		counter("callbacks_delivered_total", "Total notification callback invocations",
			func(s store.Stats) uint64 { return s.Dispatch.Delivered }),
		counter("dispatch_aborted_total", "Total notification walks stopped by a nested change",
			func(s store.Stats) uint64 { return s.Dispatch.Aborted }),
		counter("registration_sweeps_total", "Total tombstone compactions",
			func(s store.Stats) uint64 { return s.Dispatch.Sweeps }),
	)
}
