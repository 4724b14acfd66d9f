package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/ferry/pkg/cli"
	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/telemetry/logging"
)

var runFlags struct {
	regionIn  string
	regionOut string
	seedPath  string
	listen    string
	logLevel  string
	dryRun    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one boot stage",
	Long: `Run the policy store of one boot stage.

The stage ingests the incoming handoff region, applies the seed file, and then
serves metrics and health endpoints until it receives SIGINT or SIGTERM. On
shutdown it exports every policy not marked local_to_stage into the region
and writes the outgoing region file.

Examples:
  # First stage: no incoming region, seed from a file
  ferry run --seed policies.yaml --region-out handoff.bin

  # Later stage: pass the region on in place
  ferry run --region-in handoff.bin --region-out handoff.bin

  # Start with custom config
  ferry run --config /etc/ferry/stage.yaml

  # Validate config without starting the stage
  ferry run --dry-run`,
	RunE: runStage,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.regionIn, "region-in", "", "override incoming region file")
	runCmd.Flags().StringVar(&runFlags.regionOut, "region-out", "", "override outgoing region file")
	runCmd.Flags().StringVar(&runFlags.seedPath, "seed", "", "override seed file")
	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "override telemetry listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the stage")
}

func runStage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	st, err := newStage(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			logger.Error("failed to release stage resources", "error", err)
		}
	}()

	if err := st.start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintf(out, "✓ Stage %s started (%d policies)\n", cfg.Stage.Name, st.svc.Stats().Entries)
	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		fmt.Fprintf(out, "✓ Telemetry endpoints on %s\n", addr)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to end the stage")

	serveErr := st.serve(ctx)
	if serveErr != nil {
		logger.Error("stage stopped with error", "error", serveErr)
	}

	// The handoff is written even when serving failed; the next stage must
	// not lose the policies of this one.
	if err := st.finish(context.WithoutCancel(ctx)); err != nil {
		return cli.NewCommandError("run", err)
	}
	if serveErr != nil {
		return cli.NewCommandError("run", serveErr)
	}

	fmt.Fprintln(out, "✓ Stage ended, handoff written")
	return nil
}

// applyRunFlags overrides configuration with run flags that were set.
func applyRunFlags(cfg *config.Config) {
	if runFlags.regionIn != "" {
		cfg.Stage.RegionIn = runFlags.regionIn
	}
	if runFlags.regionOut != "" {
		cfg.Stage.RegionOut = runFlags.regionOut
	}
	if runFlags.seedPath != "" {
		cfg.Seed.Path = runFlags.seedPath
	}
	if runFlags.listen != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listen
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
}
