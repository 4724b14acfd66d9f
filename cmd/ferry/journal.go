package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/ferry/pkg/cli"
	"mercator-hq/ferry/pkg/journal"
	"mercator-hq/ferry/pkg/policy"
)

var journalFlags struct {
	dsn       string
	session   string
	policyID  string
	op        string
	since     string
	failed    bool
	limit     int
	format    string
	olderThan time.Duration
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the operation journal",
	Long: `Query and prune the SQLite journal of policy operations.

Every Set, Get, Remove, RegisterNotify and UnregisterNotify a stage serves is
journaled with its outcome, as is every ingested policy.

Subcommands:
  query  - List journaled operations with filters
  prune  - Delete old records

Examples:
  # Failed operations of the last hour
  ferry journal query --dsn journal.db --failed --since 1h

  # Everything done to one policy, as CSV
  ferry journal query --dsn journal.db --policy 6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f --format csv`,
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List journaled operations",
	Long: `List journaled operations, newest last.

--since accepts a duration relative to now ("30m") or an RFC3339 timestamp.`,
	RunE: queryJournal,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal records",
	RunE:  pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd, journalPruneCmd)

	journalCmd.PersistentFlags().StringVar(&journalFlags.dsn, "dsn", "", "journal database (uses config if not specified)")

	journalQueryCmd.Flags().StringVar(&journalFlags.session, "session", "", "filter by session UUID")
	journalQueryCmd.Flags().StringVar(&journalFlags.policyID, "policy", "", "filter by policy ID")
	journalQueryCmd.Flags().StringVar(&journalFlags.op, "op", "", "filter by operation (set, get, remove, register, unregister, ingest)")
	journalQueryCmd.Flags().StringVar(&journalFlags.since, "since", "", "only records at or after this time")
	journalQueryCmd.Flags().BoolVar(&journalFlags.failed, "failed", false, "only failed operations")
	journalQueryCmd.Flags().IntVar(&journalFlags.limit, "limit", 100, "max results")
	journalQueryCmd.Flags().StringVar(&journalFlags.format, "format", "text", "output format: text, json, csv")

	journalPruneCmd.Flags().DurationVar(&journalFlags.olderThan, "older-than", 24*time.Hour, "delete records older than this")
}

func queryJournal(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(journalFlags.format)
	if err != nil {
		return err
	}
	filter, err := journalFilter(time.Now())
	if err != nil {
		return err
	}

	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := j.Query(cmd.Context(), filter)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}

	table := cli.NewTable("seq", "recorded_at", "session", "op", "policy", "handle", "attributes", "size", "events", "duration", "error")
	for _, r := range records {
		table.AddRow(
			strconv.FormatInt(r.Seq, 10),
			r.RecordedAt.UTC().Format(time.RFC3339Nano),
			r.Session.String(),
			r.Op,
			optionalID(r.PolicyID),
			optionalHandle(r.Handle),
			r.Attributes.String(),
			strconv.Itoa(r.Size),
			r.Events.String(),
			r.Duration.String(),
			r.Error,
		)
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), table)
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	if journalFlags.olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", journalFlags.olderThan)
	}

	j, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	deleted, err := j.Prune(cmd.Context(), time.Now().Add(-journalFlags.olderThan))
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d records\n", deleted)
	return nil
}

// openJournal opens the --dsn database, or the configured one.
func openJournal(cmd *cobra.Command) (*journal.Store, error) {
	dsn := journalFlags.dsn
	if dsn == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		dsn = cfg.Journal.DSN
	}
	if dsn == "" || dsn == journal.MemoryDSN {
		return nil, fmt.Errorf("no journal database: pass --dsn or set journal.dsn to a file")
	}

	j, err := journal.Open(cmd.Context(), journal.Config{DSN: dsn}, commandLogger())
	if err != nil {
		return nil, cli.NewCommandError(cmd.CommandPath(), err)
	}
	return j, nil
}

// journalFilter builds the query filter from flags.
func journalFilter(now time.Time) (journal.Filter, error) {
	f := journal.Filter{
		Op:         journalFlags.op,
		FailedOnly: journalFlags.failed,
		Limit:      journalFlags.limit,
	}

	if journalFlags.session != "" {
		session, err := uuid.Parse(journalFlags.session)
		if err != nil {
			return f, fmt.Errorf("invalid --session: %w", err)
		}
		f.Session = session
	}
	if journalFlags.policyID != "" {
		id, err := policy.ParseID(journalFlags.policyID)
		if err != nil {
			return f, fmt.Errorf("invalid --policy: %w", err)
		}
		f.PolicyID = id
	}
	if journalFlags.since != "" {
		since, err := parseSince(journalFlags.since, now)
		if err != nil {
			return f, err
		}
		f.Since = since
	}
	return f, nil
}

func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want a duration or RFC3339 time", s)
	}
	return t, nil
}

func optionalID(id policy.ID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}

func optionalHandle(h policy.Handle) string {
	if h == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(h), 10)
}
