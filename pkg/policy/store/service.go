package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/env"
)

// Service is the policy.Service for one execution context.
type Service struct {
	env       env.Environment
	entries   *entryTable
	disp      *dispatcher
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer
	stats     atomic.Pointer[Stats]
}

var _ policy.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	alloc     Allocator
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer
}

// WithAllocator sets the payload allocator. The default is an unbounded
// HeapAllocator.
func WithAllocator(a Allocator) Option {
	return func(o *serviceOptions) { o.alloc = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *serviceOptions) { o.tracer = t }
}

// WithObserver adds an operation observer.
func WithObserver(obs Observer) Option {
	return func(o *serviceOptions) { o.observers = append(o.observers, obs) }
}

// New creates an empty Service running under environment.
func New(environment env.Environment, opts ...Option) *Service {
	o := serviceOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.alloc == nil {
		o.alloc = NewHeapAllocator(0)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("ferry/policy")
	}

	entries := newEntryTable(o.alloc)
	return &Service{
		env:       environment,
		entries:   entries,
		disp:      newDispatcher(entries.free),
		logger:    o.logger.With("component", "policy.store", "environment", environment.Name()),
		tracer:    o.tracer,
		observers: o.observers,
	}
}

// Set implements policy.Service.
func (s *Service) Set(ctx context.Context, id policy.ID, attrs policy.Attributes, payload []byte) (err error) {
	op := Operation{Kind: OpSet, ID: id, Attributes: attrs, Size: len(payload)}
	ctx, span, began := s.start(ctx, "policy.Set", op)
	defer func() { s.finish(ctx, span, began, &op, err) }()

	if id.IsZero() || len(payload) == 0 || len(payload) > policy.MaxPayloadSize {
		return &policy.OpError{Op: "set", ID: id, Err: policy.ErrInvalidParameter}
	}

	s.env.Lock()
	defer s.env.Unlock()
	defer s.refreshStats()

	e, serr := s.entries.set(id, attrs, payload)
	if serr != nil {
		return &policy.OpError{Op: "set", ID: id, Err: serr}
	}

	op.Events = policy.EventSet
	if attrs.Has(policy.AttrFinalized) {
		op.Events |= policy.EventFinalized
	}
	s.dispatch(ctx, e, op.Events)

	// A callback may have removed or replaced the entry; only a surviving
	// entry is advertised.
	if attrs.Has(policy.AttrFinalized) && s.entries.entries[id] == e {
		s.publish(ctx, id)
	}
	return nil
}

// Get implements policy.Service.
func (s *Service) Get(ctx context.Context, id policy.ID, buf []byte) (n int, attrs policy.Attributes, err error) {
	op := Operation{Kind: OpGet, ID: id}
	ctx, span, began := s.start(ctx, "policy.Get", op)
	defer func() {
		op.Size = n
		op.Attributes = attrs
		s.finish(ctx, span, began, &op, err)
	}()

	if id.IsZero() {
		return 0, 0, &policy.OpError{Op: "get", ID: id, Err: policy.ErrInvalidParameter}
	}

	s.env.Lock()
	defer s.env.Unlock()

	n, attrs, err = s.entries.get(id, buf)
	if err != nil {
		return n, attrs, &policy.OpError{Op: "get", ID: id, Err: err}
	}
	return n, attrs, nil
}

// Remove implements policy.Service.
func (s *Service) Remove(ctx context.Context, id policy.ID) (err error) {
	op := Operation{Kind: OpRemove, ID: id}
	ctx, span, began := s.start(ctx, "policy.Remove", op)
	defer func() { s.finish(ctx, span, began, &op, err) }()

	if id.IsZero() {
		return &policy.OpError{Op: "remove", ID: id, Err: policy.ErrInvalidParameter}
	}

	s.env.Lock()
	defer s.env.Unlock()
	defer s.refreshStats()

	e, uerr := s.entries.unlink(id)
	if uerr != nil {
		return &policy.OpError{Op: "remove", ID: id, Err: uerr}
	}
	op.Attributes = e.attrs
	op.Size = e.size
	op.Events = policy.EventRemoved

	// The entry is already unreachable; dispatch frees it when the last
	// frame for it unwinds.
	s.dispatch(ctx, e, policy.EventRemoved)

	if werr := s.env.WithdrawMarker(id); werr != nil {
		s.logger.DebugContext(ctx, "capability marker withdrawal failed", "policy_id", id.String(), "error", werr)
	}
	return nil
}

// RegisterNotify implements policy.Service.
func (s *Service) RegisterNotify(ctx context.Context, id policy.ID, mask policy.EventMask, priority policy.Priority, cb policy.Callback) (h policy.Handle, err error) {
	op := Operation{Kind: OpRegister, ID: id, Events: mask}
	defer func() {
		op.Handle = h
		s.notifyObservers(ctx, op, err)
	}()

	if id.IsZero() || !mask.Valid() || cb == nil {
		return 0, &policy.OpError{Op: "register", ID: id, Err: policy.ErrInvalidParameter}
	}

	s.env.Lock()
	defer s.env.Unlock()
	defer s.refreshStats()

	return s.disp.register(id, mask, priority, cb), nil
}

// UnregisterNotify implements policy.Service.
func (s *Service) UnregisterNotify(ctx context.Context, h policy.Handle) (err error) {
	defer func() { s.notifyObservers(ctx, Operation{Kind: OpUnregister, Handle: h}, err) }()

	if h == 0 {
		return &policy.OpError{Op: "unregister", Err: policy.ErrInvalidParameter}
	}

	s.env.Lock()
	defer s.env.Unlock()
	defer s.refreshStats()

	if uerr := s.disp.unregister(h); uerr != nil {
		return &policy.OpError{Op: "unregister", Handle: h, Err: uerr}
	}
	return nil
}

// Ingest installs a policy handed over by an earlier boot stage. payload is
// aliased, not copied, and is never returned to the allocator. Ingest does
// not dispatch notifications; it runs before any other operation in a stage.
// A duplicate id panics.
func (s *Service) Ingest(ctx context.Context, id policy.ID, attrs policy.Attributes, payload []byte) {
	op := Operation{Kind: OpIngest, ID: id, Attributes: attrs, Size: len(payload)}

	func() {
		s.env.Lock()
		defer s.env.Unlock()
		defer s.refreshStats()

		s.entries.ingest(id, attrs, payload)
		if attrs.Has(policy.AttrFinalized) {
			s.publish(ctx, id)
		}
	}()

	s.notifyObservers(ctx, op, nil)
}

// Entries returns a copy of every live policy in creation order.
func (s *Service) Entries() []EntryInfo {
	s.env.Lock()
	defer s.env.Unlock()
	return s.entries.snapshot()
}

// Stats describes the store's current state.
type Stats struct {
	// Entries is the number of live policies.
	Entries int

	// PendingFree counts removed entries whose storage is released once the
	// dispatch walking them unwinds.
	PendingFree int

	// Bridged counts live policies ingested from a handoff region.
	Bridged int

	// OwnedBytes is the payload capacity held from the allocator.
	OwnedBytes int

	// Dispatch reports notification dispatch counters.
	Dispatch DispatchStats
}

// Stats returns the counters published by the most recent mutation. It does
// not take the environment lock, so it is safe to call from any goroutine,
// including under the cooperative environment.
func (s *Service) Stats() Stats {
	if st := s.stats.Load(); st != nil {
		return *st
	}
	return Stats{}
}

// refreshStats publishes current counters. Called with the lock held.
func (s *Service) refreshStats() {
	st := Stats{
		Entries:     len(s.entries.entries),
		PendingFree: s.entries.pending,
		Dispatch:    s.disp.stats(),
	}
	for _, e := range s.entries.entries {
		if e.origin() == OriginBridge {
			st.Bridged++
		} else {
			st.OwnedBytes += len(e.buf.bytes())
		}
	}
	s.stats.Store(&st)
}

// dispatch runs the dispatcher under its own span so nested operations made
// by callbacks appear as its children.
func (s *Service) dispatch(ctx context.Context, e *entry, events policy.EventMask) {
	ctx, span := s.tracer.Start(ctx, "policy.dispatch", trace.WithAttributes(
		attribute.String("policy.id", e.id.String()),
		attribute.String("policy.events", events.String()),
	))
	defer span.End()

	s.disp.dispatch(ctx, s.env, e, events)
}

// publish installs the capability marker for id. Markers are advisory, so a
// failure never undoes the mutation.
func (s *Service) publish(ctx context.Context, id policy.ID) {
	if err := s.env.PublishMarker(id); err != nil {
		s.logger.DebugContext(ctx, "capability marker publication failed", "policy_id", id.String(), "error", err)
	}
}

func (s *Service) start(ctx context.Context, name string, op Operation) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("policy.id", op.ID.String()),
		attribute.Int("policy.size", op.Size),
	))
	return ctx, span, time.Now()
}

func (s *Service) finish(ctx context.Context, span trace.Span, began time.Time, op *Operation, err error) {
	op.Duration = time.Since(began)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	s.notifyObservers(ctx, *op, err)
}

func (s *Service) notifyObservers(ctx context.Context, op Operation, err error) {
	op.Err = err
	if err != nil {
		s.logger.DebugContext(ctx, "policy operation failed",
			"op", string(op.Kind),
			"policy_id", op.ID.String(),
			"error", err,
		)
	}
	for _, obs := range s.observers {
		obs.Observe(ctx, op)
	}
}
