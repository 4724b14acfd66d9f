package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerConfig configures retention pruning.
type SchedulerConfig struct {
	// Retention is how long records are kept.
	Retention time.Duration

	// Schedule is a standard five-field cron expression, e.g. "*/10 * * * *".
	// An empty schedule disables pruning.
	Schedule string
}

// Scheduler prunes the journal on a cron schedule.
type Scheduler struct {
	store   *Store
	config  SchedulerConfig
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for store.
func NewScheduler(store *Store, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  store,
		config: cfg,
		cron:   cron.New(),
		logger: logger.With("component", "journal.scheduler"),
		now:    time.Now,
	}
}

// Start schedules pruning and returns immediately. The scheduler stops when
// ctx is cancelled or Stop is called. With no schedule it does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.InfoContext(ctx, "prune schedule not configured, skipping scheduler")
		return nil
	}
	if s.config.Retention <= 0 {
		return fmt.Errorf("journal retention must be positive, got %s", s.config.Retention)
	}
	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.InfoContext(ctx, "journal scheduler started",
		"schedule", s.config.Schedule,
		"retention", s.config.Retention.String(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce prunes records older than the retention window and returns how
// many were deleted.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	cutoff := s.now().Add(-s.config.Retention)

	deleted, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled journal pruning failed", "error", err)
		return 0
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "scheduled journal pruning completed", "deleted_count", deleted)
	} else {
		s.logger.DebugContext(ctx, "scheduled journal pruning completed, no records deleted")
	}
	return deleted
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("journal scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or nil when none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
