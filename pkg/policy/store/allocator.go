package store

import (
	"fmt"
	"sync"
)

// Allocator supplies payload buffers. Free receives exactly the slice Alloc
// returned.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte)
}

// HeapAllocator allocates from the Go heap under an optional byte budget.
type HeapAllocator struct {
	mu    sync.Mutex
	limit int64
	inUse int64
}

// NewHeapAllocator creates an allocator that refuses to hold more than limit
// bytes at once. A limit of zero means unbounded.
func NewHeapAllocator(limit int64) *HeapAllocator {
	return &HeapAllocator{limit: limit}
}

// Alloc returns a zeroed buffer of n bytes, or an error when the budget
// would be exceeded.
func (a *HeapAllocator) Alloc(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limit > 0 && a.inUse+int64(n) > a.limit {
		return nil, fmt.Errorf("allocating %d bytes exceeds budget (%d of %d in use)", n, a.inUse, a.limit)
	}
	a.inUse += int64(n)
	return make([]byte, n), nil
}

// Free returns b's bytes to the budget.
func (a *HeapAllocator) Free(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inUse -= int64(len(b))
}

// InUse reports the bytes currently allocated.
func (a *HeapAllocator) InUse() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}
