package store

import (
	"context"
	"sync"
	"testing"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/env"
)

// trackingAllocator records every live buffer and flags frees of memory it
// never handed out, which catches double frees and frees of borrowed
// handoff payloads.
type trackingAllocator struct {
	t      *testing.T
	mu     sync.Mutex
	live   map[*byte]int
	allocs int
	frees  int
}

func newTrackingAllocator(t *testing.T) *trackingAllocator {
	return &trackingAllocator{t: t, live: make(map[*byte]int)}
}

func (a *trackingAllocator) Alloc(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := make([]byte, n)
	a.live[&b[0]] = n
	a.allocs++
	return b, nil
}

func (a *trackingAllocator) Free(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(b) == 0 {
		a.t.Errorf("Free() called with empty buffer")
		return
	}
	p := &b[0]
	if _, ok := a.live[p]; !ok {
		a.t.Errorf("Free() of a buffer that is not live (double free or borrowed memory)")
		return
	}
	delete(a.live, p)
	a.frees++
}

func (a *trackingAllocator) outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// callRecorder collects callback invocations.
type callRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	name   string
	id     policy.ID
	events policy.EventMask
}

func (r *callRecorder) callback(name string) policy.Callback {
	return func(_ context.Context, id policy.ID, events policy.EventMask, _ policy.Handle) {
		r.record(name, id, events)
	}
}

func (r *callRecorder) record(name string, id policy.ID, events policy.EventMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{name: name, id: id, events: events})
}

func (r *callRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.name
	}
	return out
}

func newTestService(t *testing.T, opts ...Option) (*Service, *trackingAllocator, *env.MarkerBoard) {
	t.Helper()
	alloc := newTrackingAllocator(t)
	board := env.NewMarkerBoard()
	opts = append([]Option{WithAllocator(alloc)}, opts...)
	return New(env.NewCriticalSection(board), opts...), alloc, board
}

var (
	idA = policy.MustParseID("6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f")
	idB = policy.MustParseID("a0b1c2d3-e4f5-4a6b-8c9d-0e1f2a3b4c5d")
)
