package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/ferry/pkg/policy"
)

// MemoryDSN keeps the journal in process memory.
const MemoryDSN = ":memory:"

// Config configures a journal Store.
type Config struct {
	// DSN is the SQLite data source: a file path or MemoryDSN.
	// Default: MemoryDSN
	DSN string

	// BusyTimeout is how long to wait for locks on a file database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Session identifies this process run. Default: a random UUID.
	Session uuid.UUID
}

// Store is a SQLite-backed operation journal. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dsn     string
	session uuid.UUID
	logger  *slog.Logger

	mu        sync.Mutex
	seq       int64
	closeOnce sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
	countStmt  *sql.Stmt
}

// Open opens (creating if needed) the journal database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = MemoryDSN
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Session == uuid.Nil {
		cfg.Session = uuid.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dataSource(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// exists only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:      db,
		dsn:     cfg.DSN,
		session: cfg.Session,
		logger:  logger.With("component", "journal", "session", cfg.Session.String()),
	}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	if err := s.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare journal statements: %w", err)
	}
	if err := s.resumeSeq(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func dataSource(cfg Config) string {
	if cfg.DSN == MemoryDSN || strings.Contains(cfg.DSN, "?") {
		return cfg.DSN
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.DSN, cfg.BusyTimeout.Milliseconds())
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		session TEXT NOT NULL,
		seq INTEGER NOT NULL,
		op TEXT NOT NULL,
		policy_id TEXT NOT NULL DEFAULT '',
		handle INTEGER NOT NULL DEFAULT 0,
		attributes INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		events INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		duration_ns INTEGER NOT NULL DEFAULT 0,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (session, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_recorded_at ON operations(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_operations_policy_id ON operations(policy_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) prepareStatements(ctx context.Context) error {
	var err error

	s.insertStmt, err = s.db.PrepareContext(ctx, `
		INSERT INTO operations (session, seq, op, policy_id, handle, attributes, size, events, error, duration_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.pruneStmt, err = s.db.PrepareContext(ctx, `
		DELETE FROM operations
		WHERE recorded_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	s.countStmt, err = s.db.PrepareContext(ctx, `
		SELECT COUNT(*) FROM operations
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	return nil
}

// resumeSeq continues numbering after rows an earlier Open wrote for the
// same session.
func (s *Store) resumeSeq(ctx context.Context) error {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM operations WHERE session = ?`, s.session.String(),
	).Scan(&last)
	if err != nil {
		return fmt.Errorf("failed to read journal sequence: %w", err)
	}
	s.seq = last.Int64
	return nil
}

// Session returns the session id stamped on new records.
func (s *Store) Session() uuid.UUID {
	return s.session
}

// Append journals rec under this store's session, assigning its sequence
// number and, if unset, its timestamp. It returns the stored record.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.Op == "" {
		return Record{}, fmt.Errorf("journal record has no operation")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Session = s.session
	rec.Seq = s.seq + 1

	_, err := s.insertStmt.ExecContext(ctx,
		rec.Session.String(),
		rec.Seq,
		rec.Op,
		policyIDText(rec.PolicyID),
		int64(rec.Handle),
		int64(rec.Attributes),
		rec.Size,
		int64(rec.Events),
		rec.Error,
		rec.Duration.Nanoseconds(),
		rec.RecordedAt.UnixNano(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to append journal record: %w", err)
	}
	s.seq = rec.Seq
	return rec, nil
}

// Query returns records matching f, oldest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Session != uuid.Nil {
		where = append(where, "session = ?")
		args = append(args, f.Session.String())
	}
	if !f.PolicyID.IsZero() {
		where = append(where, "policy_id = ?")
		args = append(args, f.PolicyID.String())
	}
	if f.Op != "" {
		where = append(where, "op = ?")
		args = append(args, f.Op)
	}
	if !f.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	if f.FailedOnly {
		where = append(where, "error != ''")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var q strings.Builder
	q.WriteString(`SELECT session, seq, op, policy_id, handle, attributes, size, events, error, duration_ns, recorded_at FROM operations`)
	if len(where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY recorded_at, session, seq LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			session, policyID                 string
			handle, attrs, events, durationNS int64
			recordedAt                        int64
			rec                               Record
		)
		if err := rows.Scan(&session, &rec.Seq, &rec.Op, &policyID, &handle, &attrs, &rec.Size, &events, &rec.Error, &durationNS, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec.Session, err = uuid.Parse(session)
		if err != nil {
			return nil, fmt.Errorf("corrupt session id %q: %w", session, err)
		}
		if policyID != "" {
			rec.PolicyID, err = policy.ParseID(policyID)
			if err != nil {
				return nil, fmt.Errorf("corrupt policy id: %w", err)
			}
		}
		rec.Handle = policy.Handle(handle)
		rec.Attributes = policy.Attributes(uint64(attrs))
		rec.Events = policy.EventMask(events)
		rec.Duration = time.Duration(durationNS)
		rec.RecordedAt = time.Unix(0, recordedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Prune deletes records older than olderThan and returns how many it removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Count returns the number of journaled records across all sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.countStmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count journal records: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable. It backs the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("journal database unreachable: %w", err)
	}
	return nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.pruneStmt, s.countStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}

func policyIDText(id policy.ID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}
