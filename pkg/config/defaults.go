package config

import "time"

// Default values for configuration fields.
const (
	// Stage defaults
	DefaultStageName        = "main"
	DefaultStageEnvironment = "critical_section"

	// Seed defaults
	DefaultSeedDebounce = 100 * time.Millisecond

	// Journal defaults
	DefaultJournalEnabled       = true
	DefaultJournalDSN           = ":memory:"
	DefaultJournalRetention     = 24 * time.Hour
	DefaultJournalPruneSchedule = "*/15 * * * *"

	// Telemetry defaults
	DefaultLoggingLevel          = "info"
	DefaultLoggingFormat         = "json"
	DefaultLoggingRedactPayloads = true
	DefaultMetricsEnabled        = true
	DefaultMetricsListenAddress  = "127.0.0.1:9464"
	DefaultPrometheusPath        = "/metrics"
	DefaultMetricsNamespace      = "ferry"
	DefaultMetricsSubsystem      = "policy"
	DefaultTracingEnabled        = false
	DefaultTracingSampler        = "ratio"
	DefaultTracingSamplingRate   = 1.0
	DefaultTracingServiceName    = "ferry"
	DefaultOTLPInsecure          = true
	DefaultOTLPTimeout           = 10 * time.Second
	DefaultHealthEnabled         = true
	DefaultHealthLivenessPath    = "/health"
	DefaultHealthReadinessPath   = "/ready"
	DefaultHealthCheckTimeout    = 2 * time.Second
)

// DefaultDurationBuckets are the default operation duration histogram
// buckets, in seconds. Store operations are in-memory, so they start in the
// microseconds.
var DefaultDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05}

// Defaults returns a Config with every default applied, including the
// boolean defaults that ApplyDefaults cannot tell apart from an explicit
// false. LoadConfig decodes YAML on top of it.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Journal.Enabled = DefaultJournalEnabled
	cfg.Telemetry.Logging.RedactPayloads = DefaultLoggingRedactPayloads
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	cfg.Journal.PruneSchedule = DefaultJournalPruneSchedule
	cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Stage defaults
	if cfg.Stage.Name == "" {
		cfg.Stage.Name = DefaultStageName
	}
	if cfg.Stage.Environment == "" {
		cfg.Stage.Environment = DefaultStageEnvironment
	}

	// Seed defaults
	if cfg.Seed.Debounce == 0 {
		cfg.Seed.Debounce = DefaultSeedDebounce
	}

	// Journal defaults
	if cfg.Journal.DSN == "" {
		cfg.Journal.DSN = DefaultJournalDSN
	}
	if cfg.Journal.Retention == 0 {
		cfg.Journal.Retention = DefaultJournalRetention
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
