package bridge

import (
	"fmt"

	"mercator-hq/ferry/pkg/policy"
)

// Region is the memory the next stage is guaranteed to locate: an ordered
// list of handoff blocks, oldest first. A Region is not safe for concurrent
// use.
type Region struct {
	blocks [][]byte
}

// NewRegion returns a region holding blocks, oldest first.
func NewRegion(blocks ...[]byte) *Region {
	return &Region{blocks: blocks}
}

// Append adds block as the newest block.
func (r *Region) Append(block []byte) {
	r.blocks = append(r.blocks, block)
}

// Blocks returns the region's blocks, oldest first. The slices alias the
// region.
func (r *Region) Blocks() [][]byte {
	return r.blocks
}

// Len returns the total encoded size of all blocks.
func (r *Region) Len() int {
	n := 0
	for _, b := range r.blocks {
		n += len(b)
	}
	return n
}

// Tombstone sets the removed flag on every live record for id and returns
// how many it marked.
func (r *Region) Tombstone(id policy.ID) (int, error) {
	return r.TombstoneFunc(func(rec Record) bool { return rec.ID == id })
}

// TombstoneFunc sets the removed flag on every live record for which match
// returns true and returns how many it marked.
func (r *Region) TombstoneFunc(match func(Record) bool) (int, error) {
	marked := 0
	for i, block := range r.blocks {
		sc := NewScanner(block)
		for sc.Scan() {
			rec := sc.Record()
			if !rec.Removed() && match(rec) {
				markRemoved(block[sc.Offset():])
				marked++
			}
		}
		if err := sc.Err(); err != nil {
			return marked, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return marked, nil
}

// Located is a record together with its position in the region.
type Located struct {
	Record

	Block  int
	Offset int
}

// Records decodes every record in the region, tombstoned ones included,
// oldest first. Payloads alias the region.
func (r *Region) Records() ([]Located, error) {
	var out []Located
	for i, block := range r.blocks {
		sc := NewScanner(block)
		for sc.Scan() {
			out = append(out, Located{Record: sc.Record(), Block: i, Offset: sc.Offset()})
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
	}
	return out, nil
}
