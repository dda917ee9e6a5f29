// Package skills discovers skill bundles inside a directory tree. A skill is
// a directory containing a SKILL.md file whose YAML frontmatter declares a
// name and description; everything else in the directory travels with it.
package skills

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name        string // Unique name from frontmatter
	Description string // Brief description from frontmatter
	Directory   string // Full path to the skill directory
	Content     string // Full content of SKILL.md (body, not frontmatter)
}

// Metadata represents the YAML frontmatter in SKILL.md files
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SanitizeName validates a skill name for use as a directory name. Names that
// would escape the target directory or hide themselves are rejected.
func SanitizeName(name string) (string, error) {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return "", errors.New("skill name cannot be empty")
	}
	if strings.ContainsAny(cleaned, `/\`) || strings.ContainsRune(cleaned, filepath.Separator) {
		return "", errors.Errorf("invalid skill name %q: path separators are not allowed", name)
	}
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".") {
		return "", errors.Errorf("invalid skill name %q: must not start with a dot", name)
	}
	return cleaned, nil
}

// Names returns the names of the given skills in order
func Names(list []*Skill) []string {
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name)
	}
	return names
}
