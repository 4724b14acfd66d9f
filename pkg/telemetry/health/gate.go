package health

import (
	"context"
	"errors"
	"sync"
)

// ErrNotReady is reported by a Gate that has not been opened.
var ErrNotReady = errors.New("not ready")

// Gate is a readiness check driven by the stage itself: closed until a
// startup step such as region ingest or seed application completes, then
// reporting that step's last outcome.
type Gate struct {
	mu   sync.RWMutex
	done bool
	err  error
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{}
}

// Set records the outcome of the step. A nil err opens the gate.
func (g *Gate) Set(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done = true
	g.err = err
}

// Check implements CheckFunc.
func (g *Gate) Check(context.Context) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.done {
		return ErrNotReady
	}
	return g.err
}
