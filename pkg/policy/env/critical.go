package env

import (
	"sync"

	"mercator-hq/ferry/pkg/policy"
)

// CriticalSection guards the store with a plain mutex. The lock is not
// reentrant; the dispatcher releases it around every callback.
type CriticalSection struct {
	mu    sync.Mutex
	board *MarkerBoard
}

// NewCriticalSection creates the locking variant publishing on board.
func NewCriticalSection(board *MarkerBoard) *CriticalSection {
	if board == nil {
		board = NewMarkerBoard()
	}
	return &CriticalSection{board: board}
}

// Name implements Environment.
func (c *CriticalSection) Name() string {
	return string(KindCriticalSection)
}

// Lock implements Environment.
func (c *CriticalSection) Lock() {
	c.mu.Lock()
}

// Unlock implements Environment.
func (c *CriticalSection) Unlock() {
	c.mu.Unlock()
}

// PublishMarker implements Environment.
func (c *CriticalSection) PublishMarker(id policy.ID) error {
	return c.board.Install(id)
}

// WithdrawMarker implements Environment.
func (c *CriticalSection) WithdrawMarker(id policy.ID) error {
	c.board.Uninstall(id)
	return nil
}

// Board returns the marker board consumers can poll.
func (c *CriticalSection) Board() *MarkerBoard {
	return c.board
}
