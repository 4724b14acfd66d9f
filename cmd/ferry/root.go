package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/ferry/pkg/cli"
	"mercator-hq/ferry/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ferry",
	Short: "Ferry - cross-stage policy store",
	Long: `Ferry keeps the policies of one boot stage in a store, notifies
registered callbacks when they change, and hands them on to the next stage
through a binary handoff region.

Each stage:
  - Ingests the region left by the previous stage
  - Applies an optional YAML seed file
  - Journals every policy operation to SQLite
  - Serves Prometheus metrics and health endpoints
  - Exports its policies into the region when it ends`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the --config file with FERRY_ environment overrides
// applied. --verbose forces debug logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}
