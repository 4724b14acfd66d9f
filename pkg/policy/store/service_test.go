package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/env"
)

func TestService_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	tests := []struct {
		name    string
		attrs   policy.Attributes
		payload []byte
	}{
		{name: "single byte", attrs: 0, payload: []byte{0x7f}},
		{name: "local attribute", attrs: policy.AttrLocalToStage, payload: []byte("boot-order=usb,nvme")},
		{name: "opaque high bits", attrs: 0xf000_0000_0000_0000, payload: bytes.Repeat([]byte{0xaa}, 300)},
		{name: "maximum size", attrs: 0, payload: bytes.Repeat([]byte{1}, policy.MaxPayloadSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := policy.NewID()
			require.NoError(t, svc.Set(ctx, id, tt.attrs, tt.payload))

			buf := make([]byte, len(tt.payload))
			n, attrs, err := svc.Get(ctx, id, buf)
			require.NoError(t, err)
			assert.Equal(t, len(tt.payload), n)
			assert.Equal(t, tt.attrs, attrs)
			assert.Equal(t, tt.payload, buf[:n])
		})
	}
}

func TestService_GetTwoCallProtocol(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	payload := []byte("thermal-limit=85C")
	require.NoError(t, svc.Set(ctx, idA, 0, payload))

	n, _, err := svc.Get(ctx, idA, make([]byte, 4))
	require.ErrorIs(t, err, policy.ErrBufferTooSmall)
	assert.Equal(t, len(payload), n)

	required, ok := policy.RequiredSize(err)
	require.True(t, ok)
	assert.Equal(t, len(payload), required)

	buf := make([]byte, n)
	n, _, err = svc.Get(ctx, idA, buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])

	got, _, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestService_FinalizedIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("p1")))

	err := svc.Set(ctx, idA, 0, []byte("p2"))
	require.ErrorIs(t, err, policy.ErrAccessDenied)

	var opErr *policy.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "set", opErr.Op)
	assert.Equal(t, idA, opErr.ID)

	got, attrs, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Equal(t, []byte("p1"), got)
	assert.Equal(t, policy.AttrFinalized, attrs)
}

func TestService_Overwrite(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, policy.AttrLocalToStage, []byte("first")))
	require.NoError(t, svc.Set(ctx, idA, 0, []byte("second value")))

	got, attrs, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Equal(t, []byte("second value"), got)
	assert.Equal(t, policy.Attributes(0), attrs)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	svc, alloc, _ := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, 0, []byte("value")))
	require.NoError(t, svc.Remove(ctx, idA))

	_, _, err := svc.Get(ctx, idA, make([]byte, 16))
	require.ErrorIs(t, err, policy.ErrNotFound)

	err = svc.Remove(ctx, idA)
	require.ErrorIs(t, err, policy.ErrNotFound)

	assert.Zero(t, alloc.outstanding())
	assert.Zero(t, svc.Stats().PendingFree)
}

func TestService_Multiplicity(t *testing.T) {
	ctx := context.Background()
	svc, alloc, _ := newTestService(t)

	ids := make([]policy.ID, 10)
	for i := range ids {
		ids[i] = policy.NewID()
		require.NoError(t, svc.Set(ctx, ids[i], 0, []byte(fmt.Sprintf("payload-%d", i))))
	}

	for i, id := range ids {
		got, _, err := policy.Lookup(ctx, svc, id)
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("payload-%d", i)), got)
	}

	// Remove the even ones; the odd ones must be untouched.
	for i := 0; i < len(ids); i += 2 {
		require.NoError(t, svc.Remove(ctx, ids[i]))
	}
	for i, id := range ids {
		got, _, err := policy.Lookup(ctx, svc, id)
		if i%2 == 0 {
			require.ErrorIs(t, err, policy.ErrNotFound)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("payload-%d", i)), got)
	}

	assert.Equal(t, 5, svc.Stats().Entries)
	assert.Equal(t, 5, alloc.outstanding())
}

func TestService_InvalidParameters(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	noop := func(context.Context, policy.ID, policy.EventMask, policy.Handle) {}

	tests := []struct {
		name string
		call func() error
	}{
		{"set zero id", func() error { return svc.Set(ctx, policy.NilID, 0, []byte("x")) }},
		{"set empty payload", func() error { return svc.Set(ctx, idA, 0, nil) }},
		{"set oversized payload", func() error { return svc.Set(ctx, idA, 0, make([]byte, policy.MaxPayloadSize+1)) }},
		{"get zero id", func() error { _, _, err := svc.Get(ctx, policy.NilID, nil); return err }},
		{"remove zero id", func() error { return svc.Remove(ctx, policy.NilID) }},
		{"register empty mask", func() error { _, err := svc.RegisterNotify(ctx, idA, 0, 0, noop); return err }},
		{"register unknown event bit", func() error { _, err := svc.RegisterNotify(ctx, idA, 1<<7, 0, noop); return err }},
		{"register nil callback", func() error { _, err := svc.RegisterNotify(ctx, idA, policy.EventSet, 0, nil); return err }},
		{"register zero id", func() error { _, err := svc.RegisterNotify(ctx, policy.NilID, policy.EventSet, 0, noop); return err }},
		{"unregister zero handle", func() error { return svc.UnregisterNotify(ctx, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.call(), policy.ErrInvalidParameter)
		})
	}
}

func TestService_BufferReuse(t *testing.T) {
	ctx := context.Background()
	svc, alloc, _ := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, 0, bytes.Repeat([]byte{1}, 32)))
	require.Equal(t, 1, alloc.allocs)

	// Shrinking and regrowing within the original capacity reuses the buffer.
	require.NoError(t, svc.Set(ctx, idA, 0, []byte{2, 2}))
	require.NoError(t, svc.Set(ctx, idA, 0, bytes.Repeat([]byte{3}, 32)))
	assert.Equal(t, 1, alloc.allocs)
	assert.Equal(t, 32, svc.Stats().OwnedBytes)

	got, _, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{3}, 32), got)

	// Growing past capacity reallocates exactly and frees the old buffer.
	require.NoError(t, svc.Set(ctx, idA, 0, bytes.Repeat([]byte{4}, 33)))
	assert.Equal(t, 2, alloc.allocs)
	assert.Equal(t, 1, alloc.frees)
	assert.Equal(t, 1, alloc.outstanding())
	assert.Equal(t, 33, svc.Stats().OwnedBytes)
}

func TestService_ShrinkKeepsCapacity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, 0, bytes.Repeat([]byte{9}, 64)))
	require.NoError(t, svc.Set(ctx, idA, 0, []byte{1}))

	entries := svc.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 64, entries[0].Capacity)
	assert.Equal(t, []byte{1}, entries[0].Payload)
}

func TestService_OutOfResources(t *testing.T) {
	ctx := context.Background()
	heap := NewHeapAllocator(16)
	svc := New(env.NewCooperative(), WithAllocator(heap))

	require.NoError(t, svc.Set(ctx, idA, 0, make([]byte, 10)))

	err := svc.Set(ctx, idB, 0, make([]byte, 10))
	require.ErrorIs(t, err, policy.ErrOutOfResources)

	// A failed grow leaves the existing policy intact.
	err = svc.Set(ctx, idA, 0, make([]byte, 17))
	require.ErrorIs(t, err, policy.ErrOutOfResources)

	got, _, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, int64(10), heap.InUse())

	require.NoError(t, svc.Remove(ctx, idA))
	assert.Zero(t, heap.InUse())
}

func TestService_CapabilityMarkers(t *testing.T) {
	ctx := context.Background()
	svc, _, board := newTestService(t)

	require.NoError(t, svc.Set(ctx, idA, 0, []byte("draft")))
	assert.False(t, board.Present(idA), "non-finalized Set must not publish")

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("final")))
	assert.True(t, board.Present(idA))
	assert.Equal(t, uint64(1), board.Generation(idA))

	require.NoError(t, svc.Remove(ctx, idA))
	assert.False(t, board.Present(idA))

	// Re-creating and finalizing reinstalls with a fresh generation.
	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("again")))
	assert.True(t, board.Present(idA))
}

func TestService_FinalizedSetRemovedByCallback(t *testing.T) {
	ctx := context.Background()
	svc, alloc, board := newTestService(t)

	_, err := svc.RegisterNotify(ctx, idA, policy.EventSet, 0, func(ctx context.Context, id policy.ID, _ policy.EventMask, _ policy.Handle) {
		require.NoError(t, svc.Remove(ctx, id))
	})
	require.NoError(t, err)

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("x")))

	_, _, err = svc.Get(ctx, idA, nil)
	assert.ErrorIs(t, err, policy.ErrNotFound)
	assert.False(t, board.Present(idA), "a removed policy must not stay advertised")
	assert.Zero(t, alloc.outstanding())
}

func TestService_MarkerFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	board := env.NewBoundedMarkerBoard(1)
	svc := New(env.NewCriticalSection(board))

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("a")))
	require.NoError(t, svc.Set(ctx, idB, policy.AttrFinalized, []byte("b")))

	assert.True(t, board.Present(idA))
	assert.False(t, board.Present(idB))

	got, _, err := policy.Lookup(ctx, svc, idB)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestService_Observer(t *testing.T) {
	ctx := context.Background()
	var ops []Operation
	svc, _, _ := newTestService(t, WithObserver(ObserverFunc(func(_ context.Context, op Operation) {
		ops = append(ops, op)
	})))

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("abc")))
	_, _, _ = svc.Get(ctx, idA, nil)
	require.Error(t, svc.Remove(ctx, idB))

	require.Len(t, ops, 3)
	assert.Equal(t, OpSet, ops[0].Kind)
	assert.Equal(t, policy.EventSet|policy.EventFinalized, ops[0].Events)
	assert.NoError(t, ops[0].Err)

	assert.Equal(t, OpGet, ops[1].Kind)
	assert.Equal(t, 3, ops[1].Size)
	assert.ErrorIs(t, ops[1].Err, policy.ErrBufferTooSmall)

	assert.Equal(t, OpRemove, ops[2].Kind)
	assert.True(t, errors.Is(ops[2].Err, policy.ErrNotFound))
}

func TestService_Ingest(t *testing.T) {
	ctx := context.Background()
	svc, alloc, board := newTestService(t)

	region := []byte("AAAABBBBBB")
	svc.Ingest(ctx, idA, policy.AttrFinalized, region[0:4])
	svc.Ingest(ctx, idB, 0, region[4:10])

	got, attrs, err := policy.Lookup(ctx, svc, idA)
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAA"), got)
	assert.Equal(t, policy.AttrFinalized, attrs)
	assert.True(t, board.Present(idA), "finalized ingest republishes the marker")
	assert.False(t, board.Present(idB))

	st := svc.Stats()
	assert.Equal(t, 2, st.Bridged)
	assert.Zero(t, st.OwnedBytes)

	// Updating a bridged entry always reallocates, even when it would fit,
	// and never writes into the handoff memory.
	require.NoError(t, svc.Set(ctx, idB, 0, []byte("CC")))
	assert.Equal(t, []byte("AAAABBBBBB"), region)
	assert.Equal(t, 1, alloc.allocs)

	// Removing a bridged entry must not hand borrowed memory to the allocator.
	svc.Ingest(ctx, policy.MustParseID("11111111-2222-4333-8444-555555555555"), 0, region[0:2])
	require.NoError(t, svc.Remove(ctx, policy.MustParseID("11111111-2222-4333-8444-555555555555")))
	assert.Zero(t, alloc.frees)

	entries := svc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, OriginBridge, entries[0].Origin)
	assert.Equal(t, OriginLiveSet, entries[1].Origin)
}

func TestService_IngestDuplicatePanics(t *testing.T) {
	ctx := context.Background()
	svc := New(env.NewCooperative())
	svc.Ingest(ctx, idA, 0, []byte("one"))

	assert.Panics(t, func() { svc.Ingest(ctx, idA, 0, []byte("two")) })

	// The environment was left usable.
	require.NoError(t, svc.Set(ctx, idB, 0, []byte("after")))
}
