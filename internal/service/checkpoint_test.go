package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/bulk-sub-translator/internal/persistence"
)

func newTestSQLiteStore(t *testing.T) *persistence.SQLiteStore {
	t.Helper()
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPersistentChunkCheckpointStore_Validation(t *testing.T) {
	_, err := newPersistentChunkCheckpointStore(context.Background(), nil, "batch-1")
	require.Error(t, err)

	_, err = newPersistentChunkCheckpointStore(context.Background(), newTestSQLiteStore(t), "")
	require.Error(t, err)
}

func TestPersistentChunkCheckpointStore_SaveThenLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	checkpoints, err := newPersistentChunkCheckpointStore(ctx, store, "batch-1")
	require.NoError(t, err)

	_, ok := checkpoints.Load(0, 10)
	assert.False(t, ok)

	require.NoError(t, checkpoints.Save(ctx, 0, 10, []string{"a", "b"}))

	got, ok := checkpoints.Load(0, 10)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	// Loads hand out copies, not the cached slice
	got[0] = "mutated"
	fresh, _ := checkpoints.Load(0, 10)
	assert.Equal(t, "a", fresh[0])
}

func TestPersistentChunkCheckpointStore_SurvivesRestart(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := newPersistentChunkCheckpointStore(ctx, store, "batch-1")
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, 0, 10, []string{"persisted"}))

	// A fresh store for the same job sees the earlier checkpoint
	second, err := newPersistentChunkCheckpointStore(ctx, store, "batch-1")
	require.NoError(t, err)
	got, ok := second.Load(0, 10)
	require.True(t, ok)
	assert.Equal(t, []string{"persisted"}, got)
}

func TestPersistentChunkCheckpointStore_JobsIsolated(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	one, err := newPersistentChunkCheckpointStore(ctx, store, "batch-1")
	require.NoError(t, err)
	require.NoError(t, one.Save(ctx, 0, 10, []string{"mine"}))

	other, err := newPersistentChunkCheckpointStore(ctx, store, "batch-2")
	require.NoError(t, err)
	_, ok := other.Load(0, 10)
	assert.False(t, ok)
}
