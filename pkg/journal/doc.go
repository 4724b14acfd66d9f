// Package journal keeps an audit trail of policy store operations.
//
// A Store records one row per completed operation, tagged with the session
// (one process run) that produced it. It is fed by an Observer attached to
// the policy store and read back with Query. The default DSN is an in-memory
// SQLite database, so nothing outlives the stage unless a file DSN is
// configured.
//
// Usage:
//
//	j, err := journal.Open(ctx, journal.Config{}, logger)
//	if err != nil {
//		return err
//	}
//	defer j.Close()
//
//	svc := store.New(environment, store.WithObserver(j.Observer()))
//
// A Scheduler prunes rows older than a retention window on a cron schedule.
package journal
