package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(WithPath(filepath.Join(t.TempDir(), ".skill-lock.json")))
	require.NoError(t, err)
	return store
}

func TestReadMissingFileStartsFresh(t *testing.T) {
	store := newTestStore(t)

	lock, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, lock.Version)
	assert.Empty(t, lock.Skills)
	assert.Empty(t, lock.Repos)

	// fresh manifest was persisted
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestReadCorruptFileStartsFresh(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o644))

	lock, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, lock.Version)
	assert.Empty(t, lock.Skills)
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	lock := New()
	lock.AddRepo("h/o/r", "https://h/o/r.git", "main", []string{"a"})
	lock.Skills["a"] = &SkillEntry{
		Source:        "h/o/r",
		SourceType:    "git",
		SourceURL:     "https://h/o/r.git",
		InstallMethod: InstallMethodRepoSymlink,
		RepoPath:      "h/o/r",
	}
	lock.Dismissed = map[string]bool{"welcome": true}
	require.NoError(t, store.Write(lock))

	got, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, got.Version)
	require.NotNil(t, got.Skills["a"])
	assert.Equal(t, InstallMethodRepoSymlink, got.Skills["a"].InstallMethod)
	assert.Equal(t, []string{"a"}, got.Repos["h/o/r"].Skills)
	assert.True(t, got.Dismissed["welcome"])
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write(New()))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(store.Path()), entries[0].Name())
}

func TestReadMigratesV3Manifest(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))

	v3 := `{
  "version": 3,
  "skills": {
    "commit-helper": {
      "source": "h/o/r",
      "sourceType": "git",
      "sourceUrl": "https://h/o/r",
      "skillFolderHash": "deadbeef",
      "installedAt": "2025-01-02T03:04:05Z",
      "updatedAt": "2025-01-02T03:04:05Z"
    }
  },
  "dismissed": {"welcome": true}
}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(v3), 0o644))

	lock, err := store.Read()
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, lock.Version)
	require.NotNil(t, lock.Skills["commit-helper"])
	assert.Equal(t, "deadbeef", lock.Skills["commit-helper"].SkillFolderHash)
	assert.True(t, lock.Dismissed["welcome"])
	assert.NotNil(t, lock.Repos)
	assert.Empty(t, lock.Repos)

	// migrated result was persisted
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, float64(CurrentVersion), onDisk["version"])
	assert.Contains(t, onDisk, "repos")
}

func TestReadMigratesV1Manifest(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))

	v1 := `{
  "version": 1,
  "skills": {
    "old-skill": {
      "source": "/some/local/path",
      "installedAt": "2024-06-01T00:00:00Z",
      "updatedAt": "2024-06-01T00:00:00Z"
    }
  }
}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(v1), 0o644))

	lock, err := store.Read()
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, lock.Version)
	entry := lock.Skills["old-skill"]
	require.NotNil(t, entry)
	assert.Equal(t, "git", entry.SourceType)
	assert.Equal(t, "/some/local/path", entry.SourceURL)
	assert.Empty(t, entry.InstallMethod) // legacy standalone install
	assert.NotNil(t, lock.Dismissed)
	assert.NotNil(t, lock.Repos)
}

func TestMigrateCurrentIsNoop(t *testing.T) {
	lock := New()
	lock.Skills["a"] = &SkillEntry{Source: "h/o/r"}
	lock.Migrate()
	assert.Equal(t, CurrentVersion, lock.Version)
	assert.NotNil(t, lock.Skills["a"])
}
