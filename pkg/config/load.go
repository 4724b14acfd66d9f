package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable override.
const EnvPrefix = "FERRY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields the file leaves out keep their defaults. The result is validated.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FERRY_SECTION_FIELD (e.g., FERRY_STAGE_REGION_IN). An empty
// path skips the file and starts from the defaults.
//
// The loading sequence is:
// 1. Load YAML from file (on top of the defaults)
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Defaults()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Malformed numbers, durations and booleans are reported
// rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	o := overrider{}

	// Stage overrides
	o.setString("STAGE_NAME", &cfg.Stage.Name)
	o.setString("STAGE_ENVIRONMENT", &cfg.Stage.Environment)
	o.setInt64("STAGE_PAYLOAD_BUDGET", &cfg.Stage.PayloadBudget)
	o.setInt("STAGE_MARKER_LIMIT", &cfg.Stage.MarkerLimit)
	o.setString("STAGE_REGION_IN", &cfg.Stage.RegionIn)
	o.setString("STAGE_REGION_OUT", &cfg.Stage.RegionOut)

	// Seed overrides
	o.setString("SEED_PATH", &cfg.Seed.Path)
	o.setBool("SEED_WATCH", &cfg.Seed.Watch)
	o.setDuration("SEED_DEBOUNCE", &cfg.Seed.Debounce)

	// Journal overrides
	o.setBool("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	o.setString("JOURNAL_DSN", &cfg.Journal.DSN)
	o.setDuration("JOURNAL_RETENTION", &cfg.Journal.Retention)
	o.setString("JOURNAL_PRUNE_SCHEDULE", &cfg.Journal.PruneSchedule)

	// Telemetry overrides
	o.setString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	o.setString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	o.setBool("TELEMETRY_LOGGING_REDACT_PAYLOADS", &cfg.Telemetry.Logging.RedactPayloads)
	o.setBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	o.setString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	o.setString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	o.setBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	o.setString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	o.setFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
	o.setString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	o.setBool("TELEMETRY_HEALTH_ENABLED", &cfg.Telemetry.Health.Enabled)

	if len(o.errs) > 0 {
		return ValidationError{Errors: o.errs}
	}
	return nil
}

// overrider reads FERRY_ variables into config fields, collecting parse
// failures as field errors.
type overrider struct {
	errs []FieldError
}

func (o *overrider) lookup(name string) (string, bool) {
	val := os.Getenv(EnvPrefix + name)
	return val, val != ""
}

func (o *overrider) fail(name, val, kind string) {
	o.errs = append(o.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid %s %q", kind, val),
	})
}

func (o *overrider) setString(name string, dst *string) {
	if val, ok := o.lookup(name); ok {
		*dst = val
	}
}

func (o *overrider) setBool(name string, dst *bool) {
	if val, ok := o.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			o.fail(name, val, "boolean")
			return
		}
		*dst = b
	}
}

func (o *overrider) setInt(name string, dst *int) {
	if val, ok := o.lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			o.fail(name, val, "integer")
			return
		}
		*dst = i
	}
}

func (o *overrider) setInt64(name string, dst *int64) {
	if val, ok := o.lookup(name); ok {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			o.fail(name, val, "integer")
			return
		}
		*dst = i
	}
}

func (o *overrider) setFloat(name string, dst *float64) {
	if val, ok := o.lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			o.fail(name, val, "number")
			return
		}
		*dst = f
	}
}

func (o *overrider) setDuration(name string, dst *time.Duration) {
	if val, ok := o.lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			o.fail(name, val, "duration")
			return
		}
		*dst = d
	}
}
