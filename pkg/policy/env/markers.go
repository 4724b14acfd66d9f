package env

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"mercator-hq/ferry/pkg/policy"
)

// ErrBoardFull is returned when a MarkerBoard's capacity is exhausted.
var ErrBoardFull = errors.New("marker board full")

// Marker is the published state for one policy ID.
type Marker struct {
	ID policy.ID

	// Generation counts installs, so pollers can tell a fresh signal from
	// one they have already seen.
	Generation uint64
}

// MarkerBoard holds zero-size, id-keyed capability markers. It is safe for
// concurrent use.
type MarkerBoard struct {
	mu      sync.RWMutex
	markers map[policy.ID]uint64
	limit   int
}

// NewMarkerBoard creates an unbounded board.
func NewMarkerBoard() *MarkerBoard {
	return &MarkerBoard{markers: make(map[policy.ID]uint64)}
}

// NewBoundedMarkerBoard creates a board that refuses new IDs beyond limit.
// Reinstalling an existing marker always succeeds.
func NewBoundedMarkerBoard(limit int) *MarkerBoard {
	b := NewMarkerBoard()
	b.limit = limit
	return b
}

// Install publishes the marker for id, or reinstalls it with a new generation.
func (b *MarkerBoard) Install(id policy.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen, ok := b.markers[id]
	if !ok && b.limit > 0 && len(b.markers) >= b.limit {
		return ErrBoardFull
	}
	b.markers[id] = gen + 1
	return nil
}

// Uninstall removes the marker for id.
func (b *MarkerBoard) Uninstall(id policy.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.markers, id)
}

// Present reports whether a marker for id is installed.
func (b *MarkerBoard) Present(id policy.ID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.markers[id]
	return ok
}

// Generation returns the install count of the marker for id, or zero.
func (b *MarkerBoard) Generation(id policy.ID) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.markers[id]
}

// Markers returns every installed marker ordered by ID.
func (b *MarkerBoard) Markers() []Marker {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Marker, 0, len(b.markers))
	for id, gen := range b.markers {
		out = append(out, Marker{ID: id, Generation: gen})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}
