package store

// buffer is the storage behind an entry's payload. The set of
// implementations is closed: ownedBuffer and borrowedBuffer.
type buffer interface {
	// bytes returns the whole backing storage; its length is the capacity.
	bytes() []byte

	// release hands the storage back to a if it came from a.
	release(a Allocator)
}

// ownedBuffer came from the store's Allocator and may be rewritten in place.
type ownedBuffer struct {
	data []byte
}

func (b *ownedBuffer) bytes() []byte { return b.data }

func (b *ownedBuffer) release(a Allocator) {
	if b.data == nil {
		panic("store: payload buffer released twice")
	}
	a.Free(b.data)
	b.data = nil
}

// borrowedBuffer aliases memory owned by a stage handoff region.
type borrowedBuffer struct {
	data []byte
}

func (b *borrowedBuffer) bytes() []byte { return b.data }

func (b *borrowedBuffer) release(Allocator) {}

// Origin tells where an entry's payload storage came from.
type Origin int

const (
	// OriginLiveSet entries were written by Set in this stage.
	OriginLiveSet Origin = iota

	// OriginBridge entries were ingested from an earlier stage and still
	// alias its handoff memory.
	OriginBridge
)

// String returns a string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginLiveSet:
		return "live"
	case OriginBridge:
		return "bridge"
	default:
		return "unknown"
	}
}
