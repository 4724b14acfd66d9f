package bridge

import (
	"context"
	"log/slog"
)

// Ingest installs every live record of region into dst, oldest block first.
// It must run before any other policy operation of the stage. The whole
// region is decoded before the first record is installed, so a malformed
// region installs nothing. Payloads passed to dst alias the region.
//
// Two live records for one ID mean the producing stage is broken; dst
// panics on the second.
func Ingest(ctx context.Context, dst Sink, region *Region, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	records, err := region.Records()
	if err != nil {
		return 0, err
	}

	ingested, skipped := 0, 0
	for _, rec := range records {
		if rec.Removed() {
			skipped++
			continue
		}
		dst.Ingest(ctx, rec.ID, rec.Attributes, rec.Payload)
		ingested++
	}

	logger.InfoContext(ctx, "ingested handed-over policies",
		"records", ingested,
		"tombstoned", skipped,
		"blocks", len(region.Blocks()),
	)
	return ingested, nil
}
