// Package telemetry groups the observability packages of ferry.
//
// # Components
//
//   - logging: slog loggers with stage and trace context and payload redaction
//   - metrics: Prometheus metrics for store operations, handoff and seeding
//   - tracing: OpenTelemetry tracer provider for store operation spans
//   - health: Liveness and readiness checks
//
// The metrics and health endpoints are served by package server.
package telemetry
