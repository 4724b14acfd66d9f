// Ferry runs the policy store of one boot stage and hands its policies on to
// the next.
//
// A stage ingests the handoff region its predecessor left behind, applies an
// optional seed file, serves metrics and health endpoints while it runs, and
// on shutdown exports every policy that is not local to the stage into the
// region for its successor.
//
// Usage:
//
//	# Run a stage with the default configuration
//	ferry run --region-in handoff.bin --region-out handoff.bin
//
//	# Run with a configuration file
//	ferry run --config /etc/ferry/stage.yaml
//
//	# Build a region from a seed file
//	ferry region pack --seed policies.yaml handoff.bin
//
//	# List the records of a region
//	ferry region inspect handoff.bin
//
//	# Query the operation journal
//	ferry journal query --dsn journal.db --failed
package main

func main() {
	Execute()
}
