package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/ferry/pkg/policy"
	"mercator-hq/ferry/pkg/policy/env"
	"mercator-hq/ferry/pkg/policy/store"
)

func TestApply(t *testing.T) {
	ctx := context.Background()
	svc := store.New(env.NewCooperative())

	removed := policy.MustParseID("99999999-2222-4333-8444-555555555555")
	require.NoError(t, svc.Set(ctx, removed, 0, []byte("stale")))

	f, err := Load("testdata/seed.yaml")
	require.NoError(t, err)

	res, err := Apply(ctx, svc, f, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Set: 3, Removed: 1}, res)

	got, attrs, err := policy.Lookup(ctx, svc, policy.MustParseID("6b3c2f0e-1d4a-4e8b-9c7d-0a1b2c3d4e5f"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secure-boot=on"), got)
	assert.Equal(t, policy.AttrFinalized, attrs)

	_, _, err = svc.Get(ctx, removed, nil)
	require.ErrorIs(t, err, policy.ErrNotFound)
}

func TestApply_ReapplyReportsFinalizedButContinues(t *testing.T) {
	ctx := context.Background()
	svc := store.New(env.NewCooperative())

	f, err := Load("testdata/seed.yaml")
	require.NoError(t, err)

	_, err = Apply(ctx, svc, f, nil)
	require.NoError(t, err)

	// The second pass rewrites the finalized entry and removes an absent one.
	res, err := Apply(ctx, svc, f, nil)
	require.ErrorIs(t, err, policy.ErrAccessDenied)
	assert.Equal(t, Result{Set: 2, Absent: 1, Failed: 1}, res)

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 2, entryErr.Line)
	assert.Contains(t, err.Error(), "set failed")
}
