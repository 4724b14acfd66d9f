package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "stage.environment").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStage(&cfg.Stage)...)
	errs = append(errs, validateSeed(&cfg.Seed)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateStage(cfg *StageConfig) []FieldError {
	var errs []FieldError

	if cfg.Name == "" {
		errs = append(errs, FieldError{Field: "stage.name", Message: "stage name is required"})
	}

	switch cfg.Environment {
	case "critical_section", "cooperative":
	default:
		errs = append(errs, FieldError{
			Field:   "stage.environment",
			Message: fmt.Sprintf("invalid environment %q: must be 'critical_section' or 'cooperative'", cfg.Environment),
		})
	}

	if cfg.PayloadBudget < 0 {
		errs = append(errs, FieldError{Field: "stage.payload_budget", Message: "payload budget must be non-negative"})
	}
	if cfg.MarkerLimit < 0 {
		errs = append(errs, FieldError{Field: "stage.marker_limit", Message: "marker limit must be non-negative"})
	}

	return errs
}

func validateSeed(cfg *SeedConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.Path == "" {
		errs = append(errs, FieldError{Field: "seed.watch", Message: "watching requires seed.path"})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{Field: "seed.debounce", Message: "debounce must be positive"})
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	if cfg.DSN == "" {
		errs = append(errs, FieldError{Field: "journal.dsn", Message: "dsn is required when the journal is enabled"})
	}
	if cfg.Retention <= 0 {
		errs = append(errs, FieldError{Field: "journal.retention", Message: "retention must be positive"})
	} else if cfg.Retention < time.Minute {
		errs = append(errs, FieldError{Field: "journal.retention", Message: "retention below one minute would prune records as they are written"})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.ListenAddress != "" {
			if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.listen_address",
					Message: fmt.Sprintf("invalid listen address %q: %v", cfg.Metrics.ListenAddress, err),
				})
			}
		}
		for i, b := range cfg.Metrics.DurationBuckets {
			if b <= 0 || (i > 0 && b <= cfg.Metrics.DurationBuckets[i-1]) {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.duration_buckets",
					Message: "buckets must be positive and strictly increasing",
				})
				break
			}
		}
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	// Validate health endpoints
	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" || cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path must start with /",
			})
		}
		if cfg.Health.ReadinessPath == "" || cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path must start with /",
			})
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
	}

	return errs
}
