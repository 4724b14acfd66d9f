package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/store"
)

// Source lists the policies of the stage that is ending.
type Source interface {
	Entries() []store.EntryInfo
}

// Sink installs handed-over policies in the stage that is starting.
type Sink interface {
	Ingest(ctx context.Context, id policy.ID, attrs policy.Attributes, payload []byte)
}

// Export appends one block holding every policy of src that is not local to
// the stage, in creation order, and returns the number of records written.
//
// The ending stage ingested every live record of region when it started, so
// its store supersedes them: all earlier live records are tombstoned first.
// This keeps a policy removed during the stage from resurfacing and leaves at
// most one live record per ID. When there is nothing to carry over no block
// is appended.
func Export(ctx context.Context, src Source, region *Region, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	superseded, err := region.TombstoneFunc(func(Record) bool { return true })
	if err != nil {
		return 0, fmt.Errorf("tombstoning superseded records: %w", err)
	}

	var block []byte
	written := 0
	for _, e := range src.Entries() {
		if e.Attributes.Has(policy.AttrLocalToStage) {
			continue
		}
		block = AppendRecord(block, Record{
			ID:         e.ID,
			Attributes: e.Attributes,
			Capacity:   uint16(min(e.Capacity, policy.MaxPayloadSize)),
			Payload:    e.Payload,
		})
		written++
	}

	if written > 0 {
		region.Append(block)
	}

	logger.InfoContext(ctx, "exported policies",
		"records", written,
		"superseded", superseded,
		"block_bytes", len(block),
		"blocks", len(region.Blocks()),
	)
	return written, nil
}
