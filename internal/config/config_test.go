package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "config.toml"))
	require.NoError(t, err)
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := tempStore(t)

	want := &Profile{
		Region:   "EU",
		ClientID: "client-123",
		BaseURL:  "https://custom.example.com",
		PageSize: 50,
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_LoadMissingProfile(t *testing.T) {
	store := tempStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestStore_SaveSetsRestrictivePermissions(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&Profile{Region: "US", ClientID: "c"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_Delete(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&Profile{Region: "DE", ClientID: "c"}))
	require.NoError(t, store.Delete())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoProfile)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete())
}

func TestStore_SaveOmitsEmptyOptionalFields(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(&Profile{Region: "CA", ClientID: "c"}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "base_url")
	assert.NotContains(t, string(data), "page_size")
}
