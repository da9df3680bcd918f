package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileKeyStore(path)

	key, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, store.Save("abc"))
	key, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", key)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Clear())
	key, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestFileKeyStore_PreservesOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o600))
	store := NewFileKeyStore(path)

	require.NoError(t, store.Save("abc"))
	require.NoError(t, store.Clear())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))
}

func TestFileKeyStore_CorruptFileIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	store := NewFileKeyStore(path)

	key, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, store.Save("abc"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"malti_api_key":"abc"}`, string(data))
}

func TestFileKeyStore_ClearMissingFile(t *testing.T) {
	store := NewFileKeyStore(filepath.Join(t.TempDir(), "none.json"))

	assert.NoError(t, store.Clear())
}
