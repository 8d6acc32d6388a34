package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(KeyBackendURL, "http://localhost:9200"))
	require.NoError(t, store.Set(KeyWorkers, 8))
	require.NoError(t, store.Set(KeyCacheEnabled, true))

	assert.Equal(t, "http://localhost:9200", store.GetString(KeyBackendURL))
	assert.Equal(t, 8, store.GetInt(KeyWorkers))
	assert.True(t, store.GetBool(KeyCacheEnabled))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyShelfRoot, "/mnt/books"))
	require.NoError(t, store.Set(KeyOCRLanguages, []string{"rus", "eng"}))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/books", reopened.GetString(KeyShelfRoot))
	assert.Equal(t, []string{"rus", "eng"}, reopened.GetStringSlice(KeyOCRLanguages))
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := "[elasticsearch]\nurl = \"http://search:9200\"\n\n[ocr]\nlanguages = [\"eng\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://search:9200", store.GetString(KeyBackendURL))
	assert.Equal(t, []string{"eng"}, store.GetStringSlice(KeyOCRLanguages))
}

func TestConfigStore_MissingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("no.such.key")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("no.such.key"))
	assert.Zero(t, store.GetInt("no.such.key"))
	assert.False(t, store.GetBool("no.such.key"))
	assert.Nil(t, store.GetStringSlice("no.such.key"))
}

func TestConfigStore_MissingFileStartsEmpty(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, store.GetString(KeyBackendURL))
	assert.DirExists(t, filepath.Dir(store.Path()))
}
