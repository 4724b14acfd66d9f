package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/env"
	"mercator-hq/ferry/pkg/policy/store"
)

func TestObserver_JournalsStoreOperations(t *testing.T) {
	ctx := context.Background()
	j := openTestStore(t, Config{})
	svc := store.New(env.NewCooperative(), store.WithObserver(j.Observer()))

	h, err := svc.RegisterNotify(ctx, idA, policy.EventRemoved, 0, func(ctx context.Context, id policy.ID, _ policy.EventMask, h policy.Handle) {
		_ = svc.UnregisterNotify(ctx, h)
	})
	require.NoError(t, err)

	require.NoError(t, svc.Set(ctx, idA, policy.AttrFinalized, []byte("v1")))
	require.ErrorIs(t, svc.Set(ctx, idA, 0, []byte("v2")), policy.ErrAccessDenied)
	require.NoError(t, svc.Remove(ctx, idA))

	recs, err := j.Query(ctx, Filter{})
	require.NoError(t, err)

	var ops []string
	for _, r := range recs {
		ops = append(ops, r.Op)
	}
	// The unregister issued inside the removal callback completes, and is
	// journaled, before the removal itself.
	assert.Equal(t, []string{"register", "set", "set", "unregister", "remove"}, ops)

	assert.Equal(t, h, recs[0].Handle)
	assert.Equal(t, policy.EventSet|policy.EventFinalized, recs[1].Events)
	assert.Contains(t, recs[2].Error, "access denied")
	assert.Equal(t, h, recs[3].Handle)
	assert.Equal(t, policy.AttrFinalized, recs[4].Attributes)

	failed, err := j.Query(ctx, Filter{FailedOnly: true, PolicyID: idA})
	require.NoError(t, err)
	assert.Len(t, failed, 1)
}

func TestObserver_CancelledContextStillRecorded(t *testing.T) {
	j := openTestStore(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	j.Observer().Observe(ctx, store.Operation{Kind: store.OpGet, ID: idB})

	n, err := j.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
