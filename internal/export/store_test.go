package export

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempCheckpointStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "export.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PositionRoundTrip(t *testing.T) {
	store := tempCheckpointStore(t)
	ctx := context.Background()

	// Unknown streams have no position.
	position, err := store.Position(ctx, "audit")
	require.NoError(t, err)
	assert.Empty(t, position)

	require.NoError(t, store.SetPosition(ctx, "audit", "2026-01-10T12:00:00Z"))

	position, err = store.Position(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10T12:00:00Z", position)
}

func TestStore_SetPositionUpserts(t *testing.T) {
	store := tempCheckpointStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetPosition(ctx, "audit", "2026-01-10T12:00:00Z"))
	require.NoError(t, store.SetPosition(ctx, "audit", "2026-01-11T12:00:00Z"))

	position, err := store.Position(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-11T12:00:00Z", position)
}

func TestStore_StreamsAreIndependent(t *testing.T) {
	store := tempCheckpointStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetPosition(ctx, "audit", "pos-a"))
	require.NoError(t, store.SetPosition(ctx, "siem", "pos-b"))

	position, err := store.Position(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, "pos-a", position)

	position, err = store.Position(ctx, "siem")
	require.NoError(t, err)
	assert.Equal(t, "pos-b", position)
}
