package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, description string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n\nInstructions here.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "commit-helper"), "commit-helper", "Writes commit messages")
	writeSkill(t, filepath.Join(tmpDir, "review"), "review", "Reviews pull requests")

	d := NewDiscovery()
	found, err := d.Discover(tmpDir)
	require.NoError(t, err)
	require.Len(t, found, 2)

	assert.Equal(t, []string{"commit-helper", "review"}, Names(found))
	assert.Equal(t, "Writes commit messages", found[0].Description)
	assert.Equal(t, filepath.Join(tmpDir, "commit-helper"), found[0].Directory)
	assert.Contains(t, found[0].Content, "# commit-helper")
	assert.NotContains(t, found[0].Content, "description:")
}

func TestDiscoverNested(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "top"), "top", "Top-level skill")
	writeSkill(t, filepath.Join(tmpDir, "skills", "deep", "nested"), "nested", "Deeply nested skill")

	found, err := NewDiscovery().Discover(tmpDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"top", "nested"}, Names(found))
}

func TestDiscoverTopLevelOnly(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "top"), "top", "Top-level skill")
	writeSkill(t, filepath.Join(tmpDir, "skills", "nested"), "nested", "Nested skill")

	found, err := NewDiscovery(WithFullDepth(false)).Discover(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"top"}, Names(found))
}

func TestDiscoverSkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "good"), "good", "A valid skill")

	noMeta := filepath.Join(tmpDir, "no-frontmatter")
	require.NoError(t, os.MkdirAll(noMeta, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(noMeta, "SKILL.md"), []byte("# just markdown\n"), 0o644))

	noName := filepath.Join(tmpDir, "no-name")
	require.NoError(t, os.MkdirAll(noName, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(noName, "SKILL.md"), []byte("---\ndescription: nameless\n---\nbody\n"), 0o644))

	found, err := NewDiscovery().Discover(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, Names(found))
}

func TestDiscoverDuplicateNamesFirstWins(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "a-dir"), "dupe", "First occurrence")
	writeSkill(t, filepath.Join(tmpDir, "b-dir"), "dupe", "Second occurrence")

	found, err := NewDiscovery().Discover(tmpDir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "First occurrence", found[0].Description)
}

func TestDiscoverSkipsTraversalNames(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, filepath.Join(tmpDir, "evil"), "../escape", "Tries to escape")
	writeSkill(t, filepath.Join(tmpDir, "fine"), "fine", "Behaves itself")

	found, err := NewDiscovery().Discover(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fine"}, Names(found))
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := NewDiscovery().Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "my-skill", "my-skill", false},
		{"trims whitespace", "  my-skill ", "my-skill", false},
		{"empty", "", "", true},
		{"slash", "a/b", "", true},
		{"backslash", `a\b`, "", true},
		{"dot dot", "..", "", true},
		{"hidden", ".sneaky", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
