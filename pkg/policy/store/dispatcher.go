package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"mercator-hq/ferry/pkg/policy"
)

// regKey is the total order of registrations. seq breaks priority ties so
// later registrations of equal priority run after earlier ones.
type regKey struct {
	priority policy.Priority
	seq      uint64
}

func (k regKey) less(o regKey) bool {
	if k.priority != o.priority {
		return k.priority < o.priority
	}
	return k.seq < o.seq
}

type registration struct {
	handle     policy.Handle
	id         policy.ID
	mask       policy.EventMask
	key        regKey
	cb         policy.Callback
	tombstoned bool
}

// DispatchStats summarizes dispatcher activity.
type DispatchStats struct {
	// Registrations is the number of active registrations.
	Registrations int

	// Tombstones is the number of registrations awaiting the sweep.
	Tombstones int

	// Delivered counts callback invocations.
	Delivered uint64

	// Aborted counts walks stopped because a nested dispatch for the same
	// entry ran inside a callback.
	Aborted uint64

	// Sweeps counts tombstone compactions.
	Sweeps uint64
}

// dispatcher delivers entry events to registrations. Like entryTable it
// relies on the caller holding the environment lock.
type dispatcher struct {
	regs     []*registration
	byHandle map[policy.Handle]*registration
	nextSeq  uint64

	// active counts dispatch frames in flight across all entries.
	active     int
	tombstones int

	// release frees an unlinked entry once its depth unwinds to zero.
	release func(*entry)

	delivered uint64
	aborted   uint64
	sweeps    uint64
}

func newDispatcher(release func(*entry)) *dispatcher {
	return &dispatcher{
		byHandle: make(map[policy.Handle]*registration),
		release:  release,
	}
}

func (d *dispatcher) register(id policy.ID, mask policy.EventMask, priority policy.Priority, cb policy.Callback) policy.Handle {
	d.nextSeq++
	r := &registration{
		handle: policy.Handle(d.nextSeq),
		id:     id,
		mask:   mask,
		key:    regKey{priority: priority, seq: d.nextSeq},
		cb:     cb,
	}
	i := sort.Search(len(d.regs), func(i int) bool { return r.key.less(d.regs[i].key) })
	d.regs = slices.Insert(d.regs, i, r)
	d.byHandle[r.handle] = r
	return r.handle
}

func (d *dispatcher) unregister(h policy.Handle) error {
	r, ok := d.byHandle[h]
	if !ok {
		return policy.ErrNotFound
	}
	delete(d.byHandle, h)

	if d.active > 0 {
		r.tombstoned = true
		d.tombstones++
		return nil
	}
	d.unlink(r)
	return nil
}

func (d *dispatcher) unlink(r *registration) {
	i := sort.Search(len(d.regs), func(i int) bool { return !d.regs[i].key.less(r.key) })
	if i < len(d.regs) && d.regs[i] == r {
		d.regs = slices.Delete(d.regs, i, i+1)
	}
}

// next returns the first registration ordered after cursor, or the first
// registration when cursor is nil.
func (d *dispatcher) next(cursor *regKey) *registration {
	i := 0
	if cursor != nil {
		c := *cursor
		i = sort.Search(len(d.regs), func(i int) bool { return c.less(d.regs[i].key) })
	}
	if i < len(d.regs) {
		return d.regs[i]
	}
	return nil
}

// dispatch delivers events for e to every matching registration. lock is
// held on entry and on return, and released around each callback.
func (d *dispatcher) dispatch(ctx context.Context, lock sync.Locker, e *entry, events policy.EventMask) {
	d.active++
	e.depth++
	e.generation++
	gen := e.generation

	defer func() {
		e.depth--
		if e.depth == 0 && e.pendingFree {
			d.release(e)
		}
		d.active--
		if d.active == 0 && d.tombstones > 0 {
			d.sweep()
		}
	}()

	var cursor *regKey
	for {
		r := d.next(cursor)
		if r == nil {
			return
		}
		key := r.key
		cursor = &key

		if r.tombstoned || r.id != e.id || r.mask&events == 0 {
			continue
		}

		d.invoke(ctx, lock, r, e.id, events)

		if e.generation != gen {
			d.aborted++
			return
		}
	}
}

func (d *dispatcher) invoke(ctx context.Context, lock sync.Locker, r *registration, id policy.ID, events policy.EventMask) {
	d.delivered++
	lock.Unlock()
	defer lock.Lock()
	r.cb(ctx, id, events, r.handle)
}

// sweep drops tombstoned registrations. Only called with no dispatch in flight.
func (d *dispatcher) sweep() {
	d.regs = slices.DeleteFunc(d.regs, func(r *registration) bool { return r.tombstoned })
	d.tombstones = 0
	d.sweeps++
}

func (d *dispatcher) stats() DispatchStats {
	return DispatchStats{
		Registrations: len(d.byHandle),
		Tombstones:    d.tombstones,
		Delivered:     d.delivered,
		Aborted:       d.aborted,
		Sweeps:        d.sweeps,
	}
}
