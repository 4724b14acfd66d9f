package config

import "time"

// Config is the root configuration structure for ferry. It describes one
// boot stage: how its policy store runs, where its handoff regions live,
// what seeds it, and how it is observed.
type Config struct {
	// Stage configures the policy store of this stage and its handoff
	// regions.
	Stage StageConfig `yaml:"stage"`

	// Seed configures the YAML seed file applied at stage start.
	Seed SeedConfig `yaml:"seed"`

	// Journal configures the operation journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StageConfig contains configuration for one boot stage.
type StageConfig struct {
	// Name identifies the stage in logs and journal records.
	// Default: "main"
	Name string `yaml:"name"`

	// Environment selects the execution-context adapter.
	// Options: "critical_section", "cooperative"
	// Default: "critical_section"
	Environment string `yaml:"environment"`

	// PayloadBudget caps the bytes the store may hold in payload buffers.
	// Default: 0 (unbounded)
	PayloadBudget int64 `yaml:"payload_budget"`

	// MarkerLimit caps the number of capability markers on the board.
	// Default: 0 (unbounded)
	MarkerLimit int `yaml:"marker_limit"`

	// RegionIn is the handoff region file ingested at stage start. A missing
	// file is treated as an empty region.
	RegionIn string `yaml:"region_in"`

	// RegionOut is the handoff region file written at stage end. It may be
	// the same file as RegionIn.
	RegionOut string `yaml:"region_out"`
}

// SeedConfig contains seed file configuration.
type SeedConfig struct {
	// Path is the YAML seed file. Empty disables seeding.
	Path string `yaml:"path"`

	// Watch re-applies the seed file when it changes. Re-applies run one at a
	// time and finish before the stage exports, so watching is also valid
	// under the cooperative environment.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period before a changed seed file is re-applied.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// JournalConfig contains operation journal configuration.
type JournalConfig struct {
	// Enabled controls whether operations are journaled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DSN is the SQLite data source. ":memory:" keeps the journal in
	// process memory.
	// Default: ":memory:"
	DSN string `yaml:"dsn"`

	// Retention is how long journal records are kept.
	// Default: 24h
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression for pruning. Empty disables
	// pruning.
	// Default: "*/15 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health endpoint configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPayloads replaces logged policy payloads with their length.
	// Default: true
	RedactPayloads bool `yaml:"redact_payloads"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is where the telemetry HTTP server listens. Empty
	// collects metrics without serving them.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "ferry"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "policy"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for operation duration
	// (seconds).
	// Default: [0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "ferry"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint configuration. The endpoints are
// served by the telemetry HTTP server.
type HealthConfig struct {
	// Enabled controls whether health endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual readiness checks.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
