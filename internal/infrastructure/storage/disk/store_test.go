package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaTree-Curator/internal/infrastructure/storage/disk"
	"github.com/turtacn/MetaTree-Curator/pkg/errors"
)

func TestSaveAndLoadJSON(t *testing.T) {
	store, err := disk.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	in := []map[string]string{{"uid": "abc", "smiles": "CCO"}}
	require.NoError(t, store.SaveJSON("dataset.json", in))

	var out []map[string]string
	require.NoError(t, store.LoadJSON("dataset.json", &out))
	assert.Equal(t, in, out)
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	_, err := disk.NewStore(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStoreRejectsEmptyDir(t *testing.T) {
	_, err := disk.NewStore("  ", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestLoadJSONMissingFile(t *testing.T) {
	store, err := disk.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	var out []map[string]string
	err = store.LoadJSON("absent.json", &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestLoadJSONCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := disk.NewStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))

	var out map[string]string
	err = store.LoadJSON("broken.json", &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := disk.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	for _, name := range []string{"../escape.json", "a/b.json", ""} {
		_, err := store.Path(name)
		assert.Error(t, err, "name %q should be rejected", name)
	}
}

func TestExists(t *testing.T) {
	store, err := disk.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	ok, err := store.Exists("dataset.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveJSON("dataset.json", []map[string]string{}))
	ok, err = store.Exists("dataset.json")
	require.NoError(t, err)
	assert.True(t, ok)
}
