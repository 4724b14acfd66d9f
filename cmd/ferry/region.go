package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/ferry/pkg/cli"
	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/bridge"
	"mercator-hq/ferry/pkg/policy/env"
	"mercator-hq/ferry/pkg/policy/seed"
	"mercator-hq/ferry/pkg/policy/store"
	"mercator-hq/ferry/pkg/telemetry/logging"
)

var regionFlags struct {
	seedPath string
	base     string
	all      bool
	payload  bool
	format   string
	id       string
}

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Build and inspect handoff regions",
	Long: `Build, inspect and edit handoff region files offline.

Subcommands:
  pack     - Encode a seed file as a handoff region
  inspect  - List the records of a region
  drop     - Tombstone the records of one policy

Examples:
  # Build the region a first stage would receive
  ferry region pack --seed policies.yaml handoff.bin

  # Show live records as JSON
  ferry region inspect handoff.bin --format json

  # Withdraw a policy before the next stage starts
  ferry region drop handoff.bin --id 6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f`,
}

var regionPackCmd = &cobra.Command{
	Use:   "pack OUTPUT",
	Short: "Encode a seed file as a handoff region",
	Long: `Apply a seed file to an empty store and export it as a handoff region.

With --base, the store first ingests an existing region, exactly as a stage
would, so the output supersedes the base region's records.`,
	Args: cobra.ExactArgs(1),
	RunE: packRegion,
}

var regionInspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "List the records of a region",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectRegion,
}

var regionDropCmd = &cobra.Command{
	Use:   "drop FILE",
	Short: "Tombstone the records of one policy",
	Long: `Set the removed flag on every live record of one policy, in place.
The next stage ingests nothing for it.`,
	Args: cobra.ExactArgs(1),
	RunE: dropFromRegion,
}

func init() {
	rootCmd.AddCommand(regionCmd)
	regionCmd.AddCommand(regionPackCmd, regionInspectCmd, regionDropCmd)

	regionPackCmd.Flags().StringVar(&regionFlags.seedPath, "seed", "", "seed file to encode (required)")
	regionPackCmd.Flags().StringVar(&regionFlags.base, "base", "", "region to ingest before applying the seed")
	_ = regionPackCmd.MarkFlagRequired("seed")

	regionInspectCmd.Flags().BoolVar(&regionFlags.all, "all", false, "include tombstoned records")
	regionInspectCmd.Flags().BoolVar(&regionFlags.payload, "payload", false, "include payloads as hex")
	regionInspectCmd.Flags().StringVar(&regionFlags.format, "format", "text", "output format: text, json, csv")

	regionDropCmd.Flags().StringVar(&regionFlags.id, "id", "", "policy ID to tombstone (required)")
	_ = regionDropCmd.MarkFlagRequired("id")
}

func packRegion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := commandLogger()

	region := bridge.NewRegion()
	if regionFlags.base != "" {
		var err error
		if region, err = bridge.ReadRegionFile(regionFlags.base); err != nil {
			return cli.NewCommandError("region pack", err)
		}
	}

	f, err := seed.Load(regionFlags.seedPath)
	if err != nil {
		return cli.NewCommandError("region pack", err)
	}

	svc := store.New(env.NewCooperative(), store.WithLogger(logger))
	if _, err := bridge.Ingest(ctx, svc, region, logger); err != nil {
		return cli.NewCommandError("region pack", err)
	}
	res, err := seed.Apply(ctx, svc, f, logger)
	if err != nil {
		return cli.NewCommandError("region pack", err)
	}

	n, err := bridge.Export(ctx, svc, region, logger)
	if err != nil {
		return cli.NewCommandError("region pack", err)
	}
	if err := bridge.WriteRegionFile(args[0], region); err != nil {
		return cli.NewCommandError("region pack", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Packed %d records into %s (%d set, %d removed, %d bytes)\n",
		n, args[0], res.Set, res.Removed, region.Len())
	return nil
}

func inspectRegion(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(regionFlags.format)
	if err != nil {
		return err
	}

	region, err := bridge.ReadRegionFile(args[0])
	if err != nil {
		return cli.NewCommandError("region inspect", err)
	}
	records, err := region.Records()
	if err != nil {
		return cli.NewCommandError("region inspect", err)
	}

	headers := []string{"block", "offset", "id", "attributes", "size", "capacity", "state"}
	if regionFlags.payload {
		headers = append(headers, "payload")
	}
	table := cli.NewTable(headers...)
	for _, rec := range records {
		state := "live"
		if rec.Removed() {
			if !regionFlags.all {
				continue
			}
			state = "removed"
		}
		row := []string{
			strconv.Itoa(rec.Block),
			strconv.Itoa(rec.Offset),
			rec.ID.String(),
			rec.Attributes.String(),
			strconv.Itoa(len(rec.Payload)),
			strconv.Itoa(int(rec.Capacity)),
			state,
		}
		if regionFlags.payload {
			row = append(row, hex.EncodeToString(rec.Payload))
		}
		table.AddRow(row...)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func dropFromRegion(cmd *cobra.Command, args []string) error {
	id, err := policy.ParseID(regionFlags.id)
	if err != nil {
		return err
	}

	region, err := bridge.ReadRegionFile(args[0])
	if err != nil {
		return cli.NewCommandError("region drop", err)
	}
	n, err := region.Tombstone(id)
	if err != nil {
		return cli.NewCommandError("region drop", err)
	}
	if n == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No live records for %s\n", id)
		return nil
	}
	if err := bridge.WriteRegionFile(args[0], region); err != nil {
		return cli.NewCommandError("region drop", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Tombstoned %d records for %s\n", n, id)
	return nil
}

// commandLogger builds the logger for offline commands from the loaded
// configuration, falling back to warnings on stderr.
func commandLogger() *slog.Logger {
	cfg, err := loadConfig()
	if err != nil {
		return slog.Default()
	}
	if !verbose {
		cfg.Telemetry.Logging.Level = "warn"
	}
	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return slog.Default()
	}
	return logger
}
