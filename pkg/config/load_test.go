package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ferry.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
stage:
  name: "dxe"
  environment: "cooperative"
  payload_budget: 65536
  region_in: "/tmp/in.region"
  region_out: "/tmp/out.region"

seed:
  path: "./seed.yaml"
  watch: true
  debounce: "250ms"

journal:
  dsn: "file:journal.db"
  retention: "2h"

telemetry:
  logging:
    level: "debug"
    format: "text"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Stage.Name != "dxe" {
		t.Errorf("expected stage name %q, got %q", "dxe", cfg.Stage.Name)
	}
	if cfg.Stage.Environment != "cooperative" {
		t.Errorf("expected environment %q, got %q", "cooperative", cfg.Stage.Environment)
	}
	if cfg.Stage.PayloadBudget != 65536 {
		t.Errorf("expected payload budget 65536, got %d", cfg.Stage.PayloadBudget)
	}
	if cfg.Stage.RegionIn != "/tmp/in.region" || cfg.Stage.RegionOut != "/tmp/out.region" {
		t.Errorf("unexpected regions %q, %q", cfg.Stage.RegionIn, cfg.Stage.RegionOut)
	}
	if !cfg.Seed.Watch {
		t.Error("expected seed watch to be enabled")
	}
	if cfg.Seed.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce %v, got %v", 250*time.Millisecond, cfg.Seed.Debounce)
	}
	if cfg.Journal.Retention != 2*time.Hour {
		t.Errorf("expected retention %v, got %v", 2*time.Hour, cfg.Journal.Retention)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected explicit false to disable metrics")
	}

	// Omitted sections keep their defaults.
	if !cfg.Journal.Enabled {
		t.Error("expected journal to stay enabled")
	}
	if cfg.Journal.PruneSchedule != DefaultJournalPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultJournalPruneSchedule, cfg.Journal.PruneSchedule)
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health to stay enabled")
	}
}

func TestLoadConfig_EmptyPruneScheduleDisablesPruning(t *testing.T) {
	path := writeConfig(t, `
journal:
  prune_schedule: ""
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Journal.PruneSchedule != "" {
		t.Errorf("expected empty prune schedule, got %q", cfg.Journal.PruneSchedule)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "stage:\n  name: [unterminated\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got: %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
stage:
  environment: "preemptive"
telemetry:
  logging:
    level: "verbose"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	if cfg.Stage.Name != DefaultStageName {
		t.Errorf("expected stage name %q, got %q", DefaultStageName, cfg.Stage.Name)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	path := writeConfig(t, `
stage:
  name: "pei"
  region_out: "/tmp/from-file.region"
`)

	t.Setenv("FERRY_STAGE_NAME", "dxe")
	t.Setenv("FERRY_STAGE_ENVIRONMENT", "cooperative")
	t.Setenv("FERRY_SEED_PATH", "/etc/ferry/seed.yaml")
	t.Setenv("FERRY_JOURNAL_DSN", "file:/var/lib/ferry/journal.db")
	t.Setenv("FERRY_TELEMETRY_LOGGING_FORMAT", "text")
	t.Setenv("FERRY_TELEMETRY_TRACING_SAMPLER", "always")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Stage.Name != "dxe" {
		t.Errorf("expected stage name %q, got %q", "dxe", cfg.Stage.Name)
	}
	if cfg.Stage.Environment != "cooperative" {
		t.Errorf("expected environment %q, got %q", "cooperative", cfg.Stage.Environment)
	}
	if cfg.Stage.RegionOut != "/tmp/from-file.region" {
		t.Errorf("expected file value to survive, got %q", cfg.Stage.RegionOut)
	}
	if cfg.Seed.Path != "/etc/ferry/seed.yaml" {
		t.Errorf("expected seed path override, got %q", cfg.Seed.Path)
	}
	if cfg.Journal.DSN != "file:/var/lib/ferry/journal.db" {
		t.Errorf("expected dsn override, got %q", cfg.Journal.DSN)
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("expected format override, got %q", cfg.Telemetry.Logging.Format)
	}
	if cfg.Telemetry.Tracing.Sampler != "always" {
		t.Errorf("expected sampler override, got %q", cfg.Telemetry.Tracing.Sampler)
	}
}

func TestLoadConfigWithEnvOverrides_TypedValues(t *testing.T) {
	t.Setenv("FERRY_STAGE_PAYLOAD_BUDGET", "1048576")
	t.Setenv("FERRY_STAGE_MARKER_LIMIT", "64")
	t.Setenv("FERRY_SEED_DEBOUNCE", "2s")
	t.Setenv("FERRY_JOURNAL_RETENTION", "90m")
	t.Setenv("FERRY_JOURNAL_ENABLED", "false")
	t.Setenv("FERRY_TELEMETRY_METRICS_ENABLED", "0")
	t.Setenv("FERRY_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Stage.PayloadBudget != 1048576 {
		t.Errorf("expected payload budget 1048576, got %d", cfg.Stage.PayloadBudget)
	}
	if cfg.Stage.MarkerLimit != 64 {
		t.Errorf("expected marker limit 64, got %d", cfg.Stage.MarkerLimit)
	}
	if cfg.Seed.Debounce != 2*time.Second {
		t.Errorf("expected debounce %v, got %v", 2*time.Second, cfg.Seed.Debounce)
	}
	if cfg.Journal.Retention != 90*time.Minute {
		t.Errorf("expected retention %v, got %v", 90*time.Minute, cfg.Journal.Retention)
	}
	if cfg.Journal.Enabled {
		t.Error("expected journal to be disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("expected sample ratio 0.25, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		kind  string
	}{
		{name: "bad duration", env: "FERRY_SEED_DEBOUNCE", value: "soon", kind: "duration"},
		{name: "bad integer", env: "FERRY_STAGE_MARKER_LIMIT", value: "many", kind: "integer"},
		{name: "bad int64", env: "FERRY_STAGE_PAYLOAD_BUDGET", value: "1.5", kind: "integer"},
		{name: "bad boolean", env: "FERRY_SEED_WATCH", value: "sometimes", kind: "boolean"},
		{name: "bad number", env: "FERRY_TELEMETRY_TRACING_SAMPLE_RATIO", value: "half", kind: "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := LoadConfigWithEnvOverrides("")
			if err == nil {
				t.Fatal("expected error for invalid environment value")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if len(verr.Errors) != 1 || verr.Errors[0].Field != tt.env {
				t.Fatalf("expected one error for %s, got %v", tt.env, verr.Errors)
			}
			if !strings.Contains(verr.Errors[0].Message, tt.kind) {
				t.Errorf("expected message to name %q, got %q", tt.kind, verr.Errors[0].Message)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides_ValidationAfterOverride(t *testing.T) {
	t.Setenv("FERRY_STAGE_ENVIRONMENT", "threads")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected override context in error, got: %v", err)
	}
}
