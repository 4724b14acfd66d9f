package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/policy"
)

var (
	idSecureBoot = policy.MustParseID("6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f")
	idScratch    = policy.MustParseID("a0b1c2d3-e4f5-4a6b-8c9d-0e1f2a3b4c5d")
	idFan        = policy.MustParseID("11111111-2222-4333-8444-555555555555")
	idLid        = policy.MustParseID("22222222-3333-4444-8555-666666666666")
)

const testSeed = `policies:
  - id: 6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f
    attributes: [finalized]
    text: "secure-boot=on"
  - id: a0b1c2d3-e4f5-4a6b-8c9d-0e1f2a3b4c5d
    attributes: [local]
    text: "scratch"
  - id: 11111111-2222-4333-8444-555555555555
    text: "fan=auto"
`

const lidSeed = `policies:
  - id: 22222222-3333-4444-8555-666666666666
    text: "lid=suspend"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns the defaults with the telemetry server switched off.
func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Telemetry.Metrics.ListenAddress = ""
	cfg.Seed.Debounce = 20 * time.Millisecond
	return cfg
}

func newTestStage(t *testing.T, cfg *config.Config) *stage {
	t.Helper()
	st, err := newStage(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.close(context.Background()) })
	return st
}

// resetFlags restores every flag variable to its default; cobra keeps them
// between runs.
func resetFlags() {
	cfgFile, verbose = "", false
	runFlags.regionIn, runFlags.regionOut, runFlags.seedPath = "", "", ""
	runFlags.listen, runFlags.logLevel, runFlags.dryRun = "", "", false
	regionFlags.seedPath, regionFlags.base, regionFlags.id = "", "", ""
	regionFlags.all, regionFlags.payload, regionFlags.format = false, false, "text"
	journalFlags.dsn, journalFlags.session, journalFlags.policyID = "", "", ""
	journalFlags.op, journalFlags.since, journalFlags.failed = "", "", false
	journalFlags.limit, journalFlags.format, journalFlags.olderThan = 100, "text", 24*time.Hour
	validateFlags.seedPath, validateFlags.region = "", ""
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
