// Package metrics provides Prometheus metrics collection for ferry.
//
// # Overview
//
// The metrics package records what the policy store of a stage does:
// operation counts and latencies, the store's live counters, handoff region
// traffic and seed file application.
//
// # Metrics Categories
//
//   - Operation Metrics: Operations by kind and result, durations, payload sizes
//   - Store Metrics: Live entries, owned bytes, registrations and dispatch
//     counters, read from store.Stats at scrape time
//   - Handoff Metrics: Records ingested and exported, seed entry outcomes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	svc := store.New(environment, store.WithObserver(collector))
//	collector.RegisterStore(svc)
//
//	n, err := bridge.Ingest(ctx, svc, region, logger)
//	collector.RecordIngest(n, err)
//
//	http.Handle("/metrics", collector.Handler())
//
// # Labels
//
// Label values are bounded: operation kinds, result classes derived from the
// policy error kinds, and transfer directions. Policy identifiers are never
// used as labels.
package metrics
