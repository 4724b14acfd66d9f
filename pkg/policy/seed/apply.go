package seed

import (
	"context"
	"errors"
	"log/slog"

	"mercator-hq/ferry/pkg/policy"
)

// Result counts what Apply did.
type Result struct {
	Set     int
	Removed int

	// Absent counts removals of policies that did not exist.
	Absent int

	Failed int
}

// Apply applies the entries of f to svc in order. A failing entry, such as a
// write to a finalized policy, does not stop the rest; all failures are
// returned together as entry errors.
func Apply(ctx context.Context, svc policy.Service, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var res Result
	var errs ErrorList
	for _, p := range f.Policies {
		if p.Remove {
			err := svc.Remove(ctx, p.ID)
			switch {
			case err == nil:
				res.Removed++
			case errors.Is(err, policy.ErrNotFound):
				res.Absent++
			default:
				res.Failed++
				errs.Add(&EntryError{FilePath: f.Path, Line: p.Line, PolicyID: p.ID.String(), Message: "remove failed", Cause: err})
			}
			continue
		}

		if err := svc.Set(ctx, p.ID, p.Attributes, p.Payload); err != nil {
			res.Failed++
			errs.Add(&EntryError{FilePath: f.Path, Line: p.Line, PolicyID: p.ID.String(), Message: "set failed", Cause: err})
			continue
		}
		logger.DebugContext(ctx, "seeded policy",
			"policy_id", p.ID.String(),
			"attributes", p.Attributes.String(),
			"payload", p.Payload,
		)
		res.Set++
	}

	logger.InfoContext(ctx, "applied seed file",
		"path", f.Path,
		"set", res.Set,
		"removed", res.Removed,
		"absent", res.Absent,
		"failed", res.Failed,
	)
	return res, errs.ToError()
}
