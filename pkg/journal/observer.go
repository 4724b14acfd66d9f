package journal

import (
	"context"

	"mercator-hq/ferry/pkg/policy/store"
)

// Observer returns a store.Observer that journals every operation. Failed
// writes are logged and dropped; the journal never fails a policy operation.
func (s *Store) Observer() store.Observer {
	return store.ObserverFunc(func(ctx context.Context, op store.Operation) {
		rec := Record{
			Op:         string(op.Kind),
			PolicyID:   op.ID,
			Handle:     op.Handle,
			Attributes: op.Attributes,
			Size:       op.Size,
			Events:     op.Events,
			Duration:   op.Duration,
		}
		if op.Err != nil {
			rec.Error = op.Err.Error()
		}

		// The operation has already completed; a caller cancelling its
		// context must not lose the record.
		if _, err := s.Append(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.WarnContext(ctx, "dropping journal record", "op", rec.Op, "error", err)
		}
	})
}
