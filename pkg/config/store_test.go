package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("missing file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")

		store, err := NewFileStore(path)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())
		assert.False(t, store.IsModified())

		all, err := store.GetAll()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("default path", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		store, err := NewFileStore("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".webtool", "config.json"), store.Path())
	})

	t.Run("loads existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"version": "1.0",
			"sections": {"watcher": {"control_label": "Track"}}
		}`), 0600))

		store, err := NewFileStore(path)
		require.NoError(t, err)

		section, err := store.GetSection("watcher")
		require.NoError(t, err)
		assert.Equal(t, "Track", section["control_label"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := NewFileStore(path)
		assert.ErrorContains(t, err, "failed to decode config file")
	})
}

func TestFileStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("integrations", map[string]interface{}{
		"disabled": []interface{}{"Trello"},
	}))
	assert.True(t, store.IsModified())

	require.NoError(t, store.Save())
	assert.False(t, store.IsModified())
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a save")

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	section, err := reloaded.GetSection("integrations")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"Trello"}, section["disabled"])
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	input := map[string]interface{}{"key": "value"}
	require.NoError(t, store.SetSection("test", input))
	input["key"] = "changed"

	got, err := store.GetSection("test")
	require.NoError(t, err)
	assert.Equal(t, "value", got["key"])

	got["key"] = "mutated"
	again, err := store.GetSection("test")
	require.NoError(t, err)
	assert.Equal(t, "value", again["key"])

	all := map[string]map[string]interface{}{"a": {"n": 1.0}}
	require.NoError(t, store.SetAll(all))
	all["a"]["n"] = 2.0

	stored, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, 1.0, stored["a"]["n"])
}
