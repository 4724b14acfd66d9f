package store

import (
	"fmt"
	"sort"

	"mercator-hq/ferry/pkg/policy"
)

// entry is one policy held by the table.
type entry struct {
	id    policy.ID
	attrs policy.Attributes
	buf   buffer
	size  int

	// seq is the creation order, used for deterministic export.
	seq uint64

	// depth counts dispatches for this entry currently on the stack.
	depth int

	// generation increments every time a dispatch for this entry begins.
	// A walk that sees it change mid-callback knows a nested dispatch ran.
	generation uint64

	// pendingFree is set once the entry has been unlinked by remove.
	pendingFree bool
	freed       bool
}

func (e *entry) payload() []byte {
	return e.buf.bytes()[:e.size]
}

func (e *entry) origin() Origin {
	if _, ok := e.buf.(*borrowedBuffer); ok {
		return OriginBridge
	}
	return OriginLiveSet
}

// EntryInfo is a read-only copy of one entry.
type EntryInfo struct {
	ID         policy.ID
	Attributes policy.Attributes
	Payload    []byte
	Capacity   int
	Origin     Origin
}

// entryTable owns the policy entries. It performs no locking; Service holds
// the environment lock around every call.
type entryTable struct {
	entries map[policy.ID]*entry
	alloc   Allocator
	nextSeq uint64

	// pending counts unlinked entries waiting for their dispatch to unwind.
	pending int
}

func newEntryTable(alloc Allocator) *entryTable {
	return &entryTable{
		entries: make(map[policy.ID]*entry),
		alloc:   alloc,
	}
}

// set creates or updates id. The caller has validated the arguments.
func (t *entryTable) set(id policy.ID, attrs policy.Attributes, payload []byte) (*entry, error) {
	e, exists := t.entries[id]
	if exists && e.attrs.Has(policy.AttrFinalized) {
		return nil, policy.ErrAccessDenied
	}

	// Reuse the buffer in place when it is ours and large enough.
	if exists {
		if ob, ok := e.buf.(*ownedBuffer); ok && len(payload) <= len(ob.data) {
			copy(ob.data, payload)
			e.size = len(payload)
			e.attrs = attrs
			return e, nil
		}
	}

	data, err := t.alloc.Alloc(len(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", policy.ErrOutOfResources, err)
	}
	copy(data, payload)
	nb := &ownedBuffer{data: data}

	if exists {
		e.buf.release(t.alloc)
		e.buf = nb
		e.size = len(payload)
		e.attrs = attrs
		return e, nil
	}

	t.nextSeq++
	e = &entry{
		id:    id,
		attrs: attrs,
		buf:   nb,
		size:  len(payload),
		seq:   t.nextSeq,
	}
	t.entries[id] = e
	return e, nil
}

// get copies the payload of id into buf.
func (t *entryTable) get(id policy.ID, buf []byte) (int, policy.Attributes, error) {
	e, ok := t.entries[id]
	if !ok {
		return 0, 0, policy.ErrNotFound
	}
	if len(buf) < e.size {
		return e.size, e.attrs, &policy.BufferTooSmallError{Required: e.size}
	}
	copy(buf, e.payload())
	return e.size, e.attrs, nil
}

// unlink removes id from the table and marks it for freeing. The entry
// stays valid until free is called.
func (t *entryTable) unlink(id policy.ID) (*entry, error) {
	e, ok := t.entries[id]
	if !ok {
		return nil, policy.ErrNotFound
	}
	delete(t.entries, id)
	e.pendingFree = true
	t.pending++
	return e, nil
}

// free releases an unlinked entry's storage.
func (t *entryTable) free(e *entry) {
	if e.freed {
		panic(fmt.Sprintf("store: policy entry %s freed twice", e.id))
	}
	e.buf.release(t.alloc)
	e.buf = nil
	e.freed = true
	e.pendingFree = false
	t.pending--
}

// ingest installs an entry whose payload aliases handoff memory. A duplicate
// ID means the producing stage wrote two live records for one policy.
func (t *entryTable) ingest(id policy.ID, attrs policy.Attributes, payload []byte) *entry {
	if _, dup := t.entries[id]; dup {
		panic(fmt.Sprintf("store: duplicate handoff record for policy %s", id))
	}
	t.nextSeq++
	e := &entry{
		id:    id,
		attrs: attrs,
		buf:   &borrowedBuffer{data: payload[:len(payload):len(payload)]},
		size:  len(payload),
		seq:   t.nextSeq,
	}
	t.entries[id] = e
	return e
}

// snapshot copies every live entry in creation order.
func (t *entryTable) snapshot() []EntryInfo {
	ordered := make([]*entry, 0, len(t.entries))
	for _, e := range t.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	out := make([]EntryInfo, len(ordered))
	for i, e := range ordered {
		out[i] = EntryInfo{
			ID:         e.id,
			Attributes: e.attrs,
			Payload:    append([]byte(nil), e.payload()...),
			Capacity:   len(e.buf.bytes()),
			Origin:     e.origin(),
		}
	}
	return out
}
