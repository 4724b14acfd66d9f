package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/ferry/pkg/cli"
	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/bridge"
	"mercator-hq/ferry/pkg/policy/seed"
)

var validateFlags struct {
	seedPath string
	region   string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration, seed files and regions",
	Long: `Check the inputs of a stage without running it.

The validate command checks:
  - The configuration file and FERRY_ environment overrides
  - The seed file (configured, or --seed)
  - The incoming region (configured, or --region): every block must decode
    and no policy may have more than one live record

Examples:
  # Validate the configured inputs
  ferry validate --config stage.yaml

  # Validate a seed file and a region on their own
  ferry validate --seed policies.yaml --region handoff.bin`,
	RunE: validateInputs,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.seedPath, "seed", "", "seed file to validate")
	validateCmd.Flags().StringVar(&validateFlags.region, "region", "", "region file to validate")
}

func validateInputs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Configuration valid")

	seedPath := validateFlags.seedPath
	if seedPath == "" {
		seedPath = cfg.Seed.Path
	}
	if seedPath != "" {
		f, err := seed.Load(seedPath)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		fmt.Fprintf(out, "✓ Seed file %s valid (%d entries)\n", seedPath, len(f.Policies))
	}

	regionPath := validateFlags.region
	if regionPath == "" {
		regionPath = cfg.Stage.RegionIn
	}
	if regionPath != "" {
		live, err := validateRegion(regionPath)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		fmt.Fprintf(out, "✓ Region %s valid (%d live records)\n", regionPath, live)
	}
	return nil
}

// validateRegion decodes the region at path and returns its live record
// count. Duplicate live records, which would abort the next stage's ingest,
// are reported together.
func validateRegion(path string) (int, error) {
	region, err := bridge.ReadRegionFile(path)
	if err != nil {
		return 0, err
	}
	records, err := region.Records()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	seen := make(map[policy.ID]bridge.Located)
	var errs []error
	for _, rec := range records {
		if rec.Removed() {
			continue
		}
		if first, ok := seen[rec.ID]; ok {
			errs = append(errs, fmt.Errorf("policy %s has live records at block %d offset %d and block %d offset %d",
				rec.ID, first.Block, first.Offset, rec.Block, rec.Offset))
			continue
		}
		seen[rec.ID] = rec
	}
	if len(errs) > 0 {
		return 0, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return len(seen), nil
}
