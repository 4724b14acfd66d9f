package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Seed.Path = "seed.yaml"
	cfg.Seed.Watch = true
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Endpoint = "localhost:4317"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Stage.Name = ""
	cfg.Stage.Environment = "threads"
	cfg.Telemetry.Logging.Format = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(cfg *Config)
		wantError  bool
		errorField string
	}{
		{
			name:       "missing stage name",
			mutate:     func(cfg *Config) { cfg.Stage.Name = "" },
			wantError:  true,
			errorField: "stage.name",
		},
		{
			name:      "cooperative environment",
			mutate:    func(cfg *Config) { cfg.Stage.Environment = "cooperative" },
			wantError: false,
		},
		{
			name:       "unknown environment",
			mutate:     func(cfg *Config) { cfg.Stage.Environment = "interrupts" },
			wantError:  true,
			errorField: "stage.environment",
		},
		{
			name:       "negative payload budget",
			mutate:     func(cfg *Config) { cfg.Stage.PayloadBudget = -1 },
			wantError:  true,
			errorField: "stage.payload_budget",
		},
		{
			name:       "negative marker limit",
			mutate:     func(cfg *Config) { cfg.Stage.MarkerLimit = -1 },
			wantError:  true,
			errorField: "stage.marker_limit",
		},
		{
			name:       "watch without seed path",
			mutate:     func(cfg *Config) { cfg.Seed.Watch = true },
			wantError:  true,
			errorField: "seed.watch",
		},
		{
			name:       "negative debounce",
			mutate:     func(cfg *Config) { cfg.Seed.Debounce = -time.Second },
			wantError:  true,
			errorField: "seed.debounce",
		},
		{
			name:       "journal without dsn",
			mutate:     func(cfg *Config) { cfg.Journal.DSN = "" },
			wantError:  true,
			errorField: "journal.dsn",
		},
		{
			name:      "disabled journal skips checks",
			mutate:    func(cfg *Config) { cfg.Journal.Enabled = false; cfg.Journal.DSN = "" },
			wantError: false,
		},
		{
			name:       "retention too short",
			mutate:     func(cfg *Config) { cfg.Journal.Retention = time.Second },
			wantError:  true,
			errorField: "journal.retention",
		},
		{
			name:       "bad prune schedule",
			mutate:     func(cfg *Config) { cfg.Journal.PruneSchedule = "every tuesday" },
			wantError:  true,
			errorField: "journal.prune_schedule",
		},
		{
			name:      "descriptor prune schedule",
			mutate:    func(cfg *Config) { cfg.Journal.PruneSchedule = "@hourly" },
			wantError: false,
		},
		{
			name:       "unknown log level",
			mutate:     func(cfg *Config) { cfg.Telemetry.Logging.Level = "trace" },
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name:       "metrics path without slash",
			mutate:     func(cfg *Config) { cfg.Telemetry.Metrics.Path = "metrics" },
			wantError:  true,
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "bad listen address",
			mutate:     func(cfg *Config) { cfg.Telemetry.Metrics.ListenAddress = "localhost" },
			wantError:  true,
			errorField: "telemetry.metrics.listen_address",
		},
		{
			name:       "unsorted buckets",
			mutate:     func(cfg *Config) { cfg.Telemetry.Metrics.DurationBuckets = []float64{0.1, 0.01} },
			wantError:  true,
			errorField: "telemetry.metrics.duration_buckets",
		},
		{
			name:       "tracing without endpoint",
			mutate:     func(cfg *Config) { cfg.Telemetry.Tracing.Enabled = true },
			wantError:  true,
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "unknown sampler",
			mutate:     func(cfg *Config) { cfg.Telemetry.Tracing.Sampler = "sometimes" },
			wantError:  true,
			errorField: "telemetry.tracing.sampler",
		},
		{
			name:       "ratio above one",
			mutate:     func(cfg *Config) { cfg.Telemetry.Tracing.SampleRatio = 1.5 },
			wantError:  true,
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name:       "readiness path without slash",
			mutate:     func(cfg *Config) { cfg.Telemetry.Health.ReadinessPath = "ready" },
			wantError:  true,
			errorField: "telemetry.health.readiness_path",
		},
		{
			name: "disabled health skips checks",
			mutate: func(cfg *Config) {
				cfg.Telemetry.Health.Enabled = false
				cfg.Telemetry.Health.LivenessPath = "health"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			if !tt.wantError {
				if err != nil {
					t.Errorf("expected no validation error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error for field %q", tt.errorField)
			}

			verr := err.(ValidationError)
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.errorField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got errors: %v", tt.errorField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains string
	}{
		{
			name:     "empty errors",
			err:      ValidationError{Errors: []FieldError{}},
			contains: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "stage.name", Message: "required"},
				},
			},
			contains: "stage.name: required",
		},
		{
			name: "multiple errors",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "stage.name", Message: "required"},
					{Field: "journal.dsn", Message: "required"},
				},
			},
			contains: "2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			if !strings.Contains(errMsg, tt.contains) {
				t.Errorf("expected error message to contain %q, got: %s", tt.contains, errMsg)
			}
		})
	}
}
