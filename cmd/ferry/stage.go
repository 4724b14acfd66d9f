package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/ferry/pkg/config"
	"mercator-hq/ferry/pkg/journal"
	"mercator-hq/ferry/pkg/policy/bridge"
	"mercator-hq/ferry/pkg/policy/env"
	"mercator-hq/ferry/pkg/policy/seed"
	"mercator-hq/ferry/pkg/policy/store"
	"mercator-hq/ferry/pkg/server"
	"mercator-hq/ferry/pkg/telemetry/health"
	"mercator-hq/ferry/pkg/telemetry/logging"
	"mercator-hq/ferry/pkg/telemetry/metrics"
	"mercator-hq/ferry/pkg/telemetry/tracing"
)

// stage is one running boot stage: its policy store and everything wired
// around it.
type stage struct {
	cfg    *config.Config
	logger *slog.Logger

	board *env.MarkerBoard
	alloc *store.HeapAllocator
	svc   *store.Service

	tracer    *tracing.Tracer
	collector *metrics.Collector
	checker   *health.Checker
	ingested  *health.Gate
	seeded    *health.Gate

	journal   *journal.Store
	scheduler *journal.Scheduler

	region *bridge.Region
}

// newStage builds the store of a stage and its telemetry. Nothing runs
// until start is called.
func newStage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stage, error) {
	s := &stage{
		cfg:      cfg,
		logger:   logger,
		ingested: health.NewGate(),
		seeded:   health.NewGate(),
	}

	kind, err := env.ParseKind(cfg.Stage.Environment)
	if err != nil {
		return nil, err
	}
	if cfg.Stage.MarkerLimit > 0 {
		s.board = env.NewBoundedMarkerBoard(cfg.Stage.MarkerLimit)
	} else {
		s.board = env.NewMarkerBoard()
	}
	environment, err := env.New(kind, s.board)
	if err != nil {
		return nil, err
	}

	s.tracer, err = tracing.New(ctx, &cfg.Telemetry.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	s.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	s.alloc = store.NewHeapAllocator(cfg.Stage.PayloadBudget)

	opts := []store.Option{
		store.WithAllocator(s.alloc),
		store.WithLogger(logger),
		store.WithTracer(s.tracer.Tracer()),
		store.WithObserver(s.collector),
	}

	if cfg.Journal.Enabled {
		s.journal, err = journal.Open(ctx, journal.Config{DSN: cfg.Journal.DSN}, logger)
		if err != nil {
			s.tracer.Shutdown(ctx)
			return nil, err
		}
		s.scheduler = journal.NewScheduler(s.journal, journal.SchedulerConfig{
			Retention: cfg.Journal.Retention,
			Schedule:  cfg.Journal.PruneSchedule,
		}, logger)
		opts = append(opts, store.WithObserver(s.journal.Observer()))
	}

	s.svc = store.New(environment, opts...)
	if cfg.Telemetry.Metrics.Enabled {
		s.collector.RegisterStore(s.svc)
	}

	s.checker = health.New(cfg.Stage.Name, cfg.Telemetry.Health.CheckTimeout)
	s.checker.RegisterCheck("region_ingest", s.ingested.Check)
	s.checker.RegisterCheck("seed", s.seeded.Check)
	if s.journal != nil {
		s.checker.RegisterCheck("journal", s.journal.Ping)
	}

	logger.InfoContext(ctx, "stage initialized",
		"environment", environment.Name(),
		"payload_budget", cfg.Stage.PayloadBudget,
		"marker_limit", cfg.Stage.MarkerLimit,
		"journal", cfg.Journal.Enabled,
		"tracing", s.tracer.Enabled(),
	)
	return s, nil
}

// start ingests the incoming region and applies the seed file. Ingest
// precedes every other operation on the store.
func (s *stage) start(ctx context.Context) error {
	ctx = logging.WithStage(ctx, s.cfg.Stage.Name)

	region, err := s.loadRegion()
	if err == nil {
		var n int
		n, err = bridge.Ingest(ctx, s.svc, region, s.logger)
		s.collector.RecordIngest(n, err)
	}
	s.ingested.Set(err)
	if err != nil {
		return fmt.Errorf("failed to ingest region: %w", err)
	}
	s.region = region

	err = s.applySeed(ctx)
	s.seeded.Set(err)
	return err
}

func (s *stage) loadRegion() (*bridge.Region, error) {
	if s.cfg.Stage.RegionIn == "" {
		return bridge.NewRegion(), nil
	}
	return bridge.ReadRegionFile(s.cfg.Stage.RegionIn)
}

// applySeed loads and applies the seed file. Entry failures are logged and
// do not fail the stage; an unreadable seed file does.
func (s *stage) applySeed(ctx context.Context) error {
	if s.cfg.Seed.Path == "" {
		return nil
	}

	f, err := seed.Load(s.cfg.Seed.Path)
	if err != nil {
		return err
	}

	began := time.Now()
	res, err := seed.Apply(ctx, s.svc, f, s.logger)
	s.collector.RecordSeedApply(res, time.Since(began))
	if err != nil {
		s.logger.WarnContext(ctx, "some seed entries failed", "failed", res.Failed, "error", err)
	}

	s.logger.InfoContext(ctx, "seed file applied",
		"path", s.cfg.Seed.Path,
		"set", res.Set,
		"removed", res.Removed,
		"absent", res.Absent,
		"failed", res.Failed,
	)
	return nil
}

// serve runs the telemetry server, the seed watcher and journal pruning until
// ctx is cancelled.
func (s *stage) serve(ctx context.Context) error {
	ctx = logging.WithStage(ctx, s.cfg.Stage.Name)
	g, ctx := errgroup.WithContext(ctx)

	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start journal scheduler: %w", err)
		}
		defer s.scheduler.Stop()
	}

	if s.cfg.Seed.Path != "" && s.cfg.Seed.Watch {
		w, err := seed.NewWatcher(seed.WatcherConfig{
			Path:     s.cfg.Seed.Path,
			Debounce: s.cfg.Seed.Debounce,
		}, s.logger)
		if err != nil {
			return err
		}
		defer w.Stop()

		g.Go(func() error {
			return w.Watch(ctx, func(ctx context.Context) error {
				err := s.applySeed(ctx)
				s.seeded.Set(err)
				return err
			})
		})
	}

	if addr := s.cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		srv := server.NewServer(server.Config{ListenAddress: addr}, s.handler(), s.logger)
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handler routes the metrics and health endpoints.
func (s *stage) handler() http.Handler {
	mux := http.NewServeMux()
	if s.cfg.Telemetry.Metrics.Enabled {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}
	if s.cfg.Telemetry.Health.Enabled {
		health.Register(mux, s.checker, s.cfg.Telemetry.Health, versionInfo())
	}
	return mux
}

// finish exports the stage's policies into the region and writes it out.
func (s *stage) finish(ctx context.Context) error {
	ctx = logging.WithStage(ctx, s.cfg.Stage.Name)
	if s.region == nil {
		return fmt.Errorf("stage %q was not started", s.cfg.Stage.Name)
	}

	n, err := bridge.Export(ctx, s.svc, s.region, s.logger)
	s.collector.RecordExport(n, err)
	if err != nil {
		return fmt.Errorf("failed to export policies: %w", err)
	}

	if s.cfg.Stage.RegionOut == "" {
		s.logger.WarnContext(ctx, "no outgoing region configured, handoff discarded", "records", n)
		return nil
	}
	if err := bridge.WriteRegionFile(s.cfg.Stage.RegionOut, s.region); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "handoff region written",
		"path", s.cfg.Stage.RegionOut,
		"bytes", s.region.Len(),
	)
	return nil
}

// close releases the journal and flushes spans.
func (s *stage) close(ctx context.Context) error {
	var errs []error
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	errs = append(errs, s.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}
