// Package installer places skills into canonical storage and fans them out to
// per-agent directories. The canonical location under ~/.skillbox/skills owns
// the skill content (as a symlink into the repo checkout, or a full copy);
// agent directories symlink to the canonical location rather than duplicating
// it.
package installer

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/agents"
	"github.com/skillbox-dev/skillbox/pkg/skills"
)

const (
	skillboxDir   = ".skillbox"
	storageSubdir = "skills"
)

// Mode selects how the canonical copy is materialized
type Mode string

// Install modes
const (
	ModeSymlink Mode = "symlink"
	ModeCopy    Mode = "copy"
)

// Installer manages the canonical storage directory and agent fan-out
type Installer struct {
	storageDir string
}

// Option configures an Installer
type Option func(*Installer)

// WithStorageDir overrides the canonical storage directory
func WithStorageDir(dir string) Option {
	return func(i *Installer) {
		i.storageDir = dir
	}
}

// New creates an installer. Canonical storage defaults to ~/.skillbox/skills.
func New(opts ...Option) (*Installer, error) {
	i := &Installer{}
	for _, opt := range opts {
		opt(i)
	}

	if i.storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get user home directory")
		}
		i.storageDir = filepath.Join(homeDir, skillboxDir, storageSubdir)
	}

	return i, nil
}

// StorageDir returns the canonical storage directory
func (i *Installer) StorageDir() string {
	return i.storageDir
}

// Result describes one install operation
type Result struct {
	Success bool
	Mode    Mode
	Path    string // canonical storage path
}

// InstallOptions tunes a single install
type InstallOptions struct {
	Mode Mode // defaults to ModeSymlink
}

// Install places the skill into canonical storage and links it into the
// agent's global skills directory. Skill names are sanitized before use as
// directory names. Installs are idempotent: an existing correct link is left
// alone, a wrong one is replaced.
func (i *Installer) Install(skill *skills.Skill, agent agents.Agent, opts InstallOptions) (*Result, error) {
	name, err := skills.SanitizeName(skill.Name)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeSymlink
	}

	canonical := filepath.Join(i.storageDir, name)

	switch mode {
	case ModeCopy:
		if err := copyDir(skill.Directory, canonical); err != nil {
			return nil, errors.Wrapf(err, "failed to copy skill %s into storage", name)
		}
	default:
		if err := ensureSymlink(skill.Directory, canonical); err != nil {
			return nil, errors.Wrapf(err, "failed to link skill %s into storage", name)
		}
	}

	if agent.HasSkillsDir() {
		link := filepath.Join(agent.SkillsDir, name)
		if err := ensureSymlink(canonical, link); err != nil {
			return nil, errors.Wrapf(err, "failed to link skill %s for %s", name, agent.Type)
		}
	}

	return &Result{Success: true, Mode: mode, Path: canonical}, nil
}

// Uninstall removes the canonical storage entry and every per-agent link for
// the named skill. Missing targets are not errors; real removal failures are
// aggregated and returned so the caller can decide whether they matter.
func (i *Installer) Uninstall(name string, agentList []agents.Agent) error {
	cleaned, err := skills.SanitizeName(name)
	if err != nil {
		return err
	}

	var merr *multierror.Error

	for _, agent := range agentList {
		if !agent.HasSkillsDir() {
			continue
		}
		link := filepath.Join(agent.SkillsDir, cleaned)
		if err := removeEntry(link); err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "failed to remove %s link for %s", cleaned, agent.Type))
		}
	}

	canonical := filepath.Join(i.storageDir, cleaned)
	if err := removeEntry(canonical); err != nil {
		merr = multierror.Append(merr, errors.Wrapf(err, "failed to remove %s from storage", cleaned))
	}

	return merr.ErrorOrNil()
}

// removeEntry deletes a symlink or directory, tolerating absence
func removeEntry(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}

// ensureSymlink makes link point at target, replacing whatever was there
func ensureSymlink(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}

	if existing, err := os.Readlink(link); err == nil {
		if existing == target {
			return nil
		}
	}
	if _, err := os.Lstat(link); err == nil {
		if err := removeEntry(link); err != nil {
			return err
		}
	}

	return os.Symlink(target, link)
}

func copyDir(src, dst string) error {
	if err := removeEntry(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(destPath, info.Mode())
		}

		return copyFile(path, destPath, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
