package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Stage.Name != DefaultStageName {
		t.Errorf("expected stage name %q, got %q", DefaultStageName, cfg.Stage.Name)
	}
	if cfg.Stage.Environment != DefaultStageEnvironment {
		t.Errorf("expected environment %q, got %q", DefaultStageEnvironment, cfg.Stage.Environment)
	}
	if !cfg.Journal.Enabled {
		t.Error("expected journal to be enabled by default")
	}
	if cfg.Journal.PruneSchedule != DefaultJournalPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultJournalPruneSchedule, cfg.Journal.PruneSchedule)
	}
	if !cfg.Telemetry.Logging.RedactPayloads {
		t.Error("expected payload redaction by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be enabled by default")
	}
	if cfg.Telemetry.Metrics.ListenAddress != DefaultMetricsListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultMetricsListenAddress, cfg.Telemetry.Metrics.ListenAddress)
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected tracing to be disabled by default")
	}
	if !cfg.Telemetry.Tracing.OTLP.Insecure {
		t.Error("expected insecure OTLP by default")
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health endpoints by default")
	}
	if cfg.Seed.Debounce != 100*time.Millisecond {
		t.Errorf("expected debounce %v, got %v", 100*time.Millisecond, cfg.Seed.Debounce)
	}
}

func TestDefaults_Valid(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("expected defaults to validate, got: %v", err)
	}
}

func TestDefaults_IndependentBuckets(t *testing.T) {
	a := Defaults()
	a.Telemetry.Metrics.DurationBuckets[0] = 42

	b := Defaults()
	if b.Telemetry.Metrics.DurationBuckets[0] == 42 {
		t.Error("expected each Defaults() call to own its bucket slice")
	}
	if DefaultDurationBuckets[0] == 42 {
		t.Error("expected DefaultDurationBuckets to be left untouched")
	}
}
