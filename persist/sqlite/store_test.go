package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/persist"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshotAt(state string) persist.Snapshot {
	return persist.Snapshot{
		Name:         "cart",
		CurrentState: state,
		Rules:        []map[string]any{{"match": "start"}},
		Metadata:     map[string]any{"source": "test"},
	}
}

func TestOpen_Reopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestSaveAndLatest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err := store.SaveSnapshot(ctx, snapshotAt("InitialState"), base)
	require.NoError(t, err)
	id, err := store.SaveSnapshot(ctx, snapshotAt("ProcessingRequest"), base.Add(time.Minute))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	snapshot, ok, err := store.LatestSnapshot(ctx, "cart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ProcessingRequest", snapshot.CurrentState)
	assert.Equal(t, "cart", snapshot.Name)
	require.Len(t, snapshot.Rules, 1)
	assert.Equal(t, "test", snapshot.Metadata["source"])
}

func TestLatest_NoSnapshots(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.LatestSnapshot(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatest_CorruptPayload(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO flexiflow_snapshots (component_name, snapshot_json, created_at)
		VALUES ('cart', '{broken', '2026-08-01T00:00:00Z')
	`)
	require.NoError(t, err)

	_, _, err = store.LatestSnapshot(ctx, "cart")
	require.Error(t, err)
	assert.True(t, ferrors.IsKind(err, ferrors.KindPersistence))
}

func TestListSnapshots_NewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, state := range []string{"A", "B", "C"} {
		_, err := store.SaveSnapshot(ctx, snapshotAt(state), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	infos, err := store.ListSnapshots(ctx, "cart", 10)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "C", infos[0].CurrentState)
	assert.Equal(t, "B", infos[1].CurrentState)
	assert.Equal(t, "A", infos[2].CurrentState)
}

func TestListSnapshots_LimitAndIsolation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.SaveSnapshot(ctx, snapshotAt("S"), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	other := snapshotAt("Other")
	other.Name = "other"
	_, err := store.SaveSnapshot(ctx, other, base)
	require.NoError(t, err)

	infos, err := store.ListSnapshots(ctx, "cart", 2)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	infos, err = store.ListSnapshots(ctx, "other", 10)
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestListSnapshots_CorruptRowReportsInvalid(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO flexiflow_snapshots (component_name, snapshot_json, created_at)
		VALUES ('cart', '{broken', '2026-08-01T00:00:00Z')
	`)
	require.NoError(t, err)

	infos, err := store.ListSnapshots(ctx, "cart", 10)
	require.NoError(t, err, "a corrupt row must not fail the listing")
	require.Len(t, infos, 1)
	assert.Equal(t, "invalid", infos[0].CurrentState)
}

func TestPruneSnapshots(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.SaveSnapshot(ctx, snapshotAt("S"), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	deleted, err := store.PruneSnapshots(ctx, "cart", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	infos, err := store.ListSnapshots(ctx, "cart", 10)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestPruneSnapshots_FewerThanKeep(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.SaveSnapshot(ctx, snapshotAt("S"), time.Time{})
	require.NoError(t, err)

	deleted, err := store.PruneSnapshots(ctx, "cart", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestPruneSnapshots_UnknownComponent(t *testing.T) {
	store := openStore(t)

	deleted, err := store.PruneSnapshots(context.Background(), "ghost", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
