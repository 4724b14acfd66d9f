// Package health serves liveness and readiness endpoints for a ferry stage.
//
// # Endpoints
//
//   - /health: Liveness probe, 200 while the process runs
//   - /ready: Readiness probe, 200 once every registered check passes
//   - /version: Build information
//
// # Readiness Checks
//
// A stage registers one check per startup dependency:
//
//	checker := health.New(cfg.Stage.Name, cfg.Telemetry.Health.CheckTimeout)
//
//	regionGate := health.NewGate()
//	checker.RegisterCheck("region", regionGate.Check)
//	checker.RegisterCheck("journal", journalStore.Ping)
//
//	_, err := bridge.Ingest(ctx, svc, region, logger)
//	regionGate.Set(err)
//
// A Gate stays unhealthy until Set is called, then reports the last outcome,
// so a seed file that later fails to re-apply turns the stage degraded.
//
// Checks run concurrently, each under the configured timeout.
package health
