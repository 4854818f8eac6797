package decisionlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorePersistQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	dispatch, err := NewRecord(KindDispatch, base, map[string]int{"assigned": 1})
	require.NoError(t, err)
	dispatch.RequestIDs = []string{"r1"}
	dispatch.DriverIDs = []string{"d1"}
	consensus, err := NewRecord(KindConsensus, base.Add(time.Minute), nil)
	require.NoError(t, err)
	consensus.AgentIDs = []string{"a1", "a2"}
	consensus.Decision = "A"
	require.NoError(t, store.Append(ctx, consensus))
	require.NoError(t, store.Append(ctx, dispatch))
	require.NoError(t, store.Close())

	// Reopen to check the records survived.
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, KindDispatch, all[0].Kind)
	assert.JSONEq(t, `{"assigned":1}`, string(all[0].Payload))
	assert.True(t, base.Equal(all[0].Timestamp))

	out, err := store.Query(ctx, Query{DriverID: "d1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, dispatch.ID, out[0].ID)

	out, err = store.Query(ctx, Query{Kind: KindConsensus, AgentID: "a2"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Decision)

	out, err = store.Query(ctx, Query{Start: base.Add(30 * time.Second)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, KindConsensus, out[0].Kind)

	out, err = store.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
