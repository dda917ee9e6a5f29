package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// Discovery scans directory trees for skill bundles
type Discovery struct {
	fullDepth bool
}

// Option is a function that configures a Discovery
type Option func(*Discovery)

// WithFullDepth enables scanning for skills nested at arbitrary depth instead
// of only at the top level of the root directory.
func WithFullDepth(fullDepth bool) Option {
	return func(d *Discovery) {
		d.fullDepth = fullDepth
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) *Discovery {
	d := &Discovery{fullDepth: true}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover finds all skills under root, ordered by their path within root.
// Directories whose SKILL.md is missing or invalid are skipped. When two
// skills declare the same name the one found first wins.
func (d *Discovery) Discover(root string) ([]*Skill, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.Wrapf(err, "cannot scan %s", root)
	}

	pattern := "*/" + skillFileName
	if d.fullDepth {
		pattern = "**/" + skillFileName
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan for skill files")
	}
	sort.Strings(matches)

	var result []*Skill
	seen := make(map[string]bool)

	for _, match := range matches {
		skillPath := filepath.Join(root, filepath.FromSlash(match))
		skill, err := loadSkill(skillPath)
		if err != nil {
			continue
		}
		if _, err := SanitizeName(skill.Name); err != nil {
			continue
		}
		if seen[skill.Name] {
			continue
		}

		skill.Directory = filepath.Dir(skillPath)
		seen[skill.Name] = true
		result = append(result, skill)
	}

	return result, nil
}

// loadSkill loads a single skill from its SKILL.md file
func loadSkill(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	name, _ := metaData["name"].(string)
	description, _ := metaData["description"].(string)

	if name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	return &Skill{
		Name:        name,
		Description: description,
		Content:     extractBodyContent(string(content)),
	}, nil
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
