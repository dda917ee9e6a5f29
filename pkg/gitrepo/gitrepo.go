// Package gitrepo manages persistent local checkouts of skill repositories.
// It normalizes repository URLs into stable identities, keeps one checkout per
// identity (and ref) under a configurable root, and delegates all transport to
// the system git binary with bounded timeouts.
//
// Checkouts are a cache: a failed update leaves the existing checkout usable,
// and the head hash is only a cheap change-detection short-circuit, never a
// correctness dependency. Reconciliation re-derives truth from the filesystem.
package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/logger"
)

const (
	// DefaultTimeout bounds each individual git operation.
	DefaultTimeout = 60 * time.Second

	// ReposDirEnv overrides the checkout root directory.
	ReposDirEnv = "SKILLBOX_REPOS_DIR"

	skillboxDir = ".skillbox"
	reposSubdir = "repos"
)

// NormalizeURL derives a stable repository identity from a URL. Scheme,
// userinfo, a trailing .git suffix, and trailing slashes are stripped so that
// every URL form of the same remote maps to the same identity, e.g.
// https://h/o/r.git, git@h:o/r.git and ssh://git@h/o/r all become "h/o/r".
// The function is pure and idempotent.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	} else if at := strings.Index(s, "@"); at != -1 {
		// scp-like syntax: user@host:path
		rest := s[at+1:]
		if colon := strings.Index(rest, ":"); colon != -1 && !strings.Contains(rest[:colon], "/") {
			s = rest[:colon] + "/" + rest[colon+1:]
		}
	}

	// userinfo left over from scheme-qualified forms like ssh://git@h/o/r
	if at := strings.Index(s, "@"); at != -1 {
		if slash := strings.Index(s, "/"); slash == -1 || at < slash {
			s = s[at+1:]
		}
	}

	s = strings.TrimSuffix(s, ".git")
	s = strings.TrimRight(s, "/")
	return s
}

// Manager maintains local checkouts under a root directory
type Manager struct {
	rootDir string
	timeout time.Duration
	gitBin  string
}

// Option configures a Manager
type Option func(*Manager)

// WithRootDir overrides the checkout root directory
func WithRootDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithTimeout overrides the per-operation timeout
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithGitBinary overrides the git executable used for transport
func WithGitBinary(bin string) Option {
	return func(m *Manager) {
		m.gitBin = bin
	}
}

// NewManager creates a checkout manager. The root directory defaults to
// $SKILLBOX_REPOS_DIR, falling back to ~/.skillbox/repos.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		timeout: DefaultTimeout,
		gitBin:  "git",
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.rootDir == "" {
		if dir := os.Getenv(ReposDirEnv); dir != "" {
			m.rootDir = dir
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, errors.Wrap(err, "failed to get user home directory")
			}
			m.rootDir = filepath.Join(homeDir, skillboxDir, reposSubdir)
		}
	}

	return m, nil
}

// RootDir returns the checkout root directory
func (m *Manager) RootDir() string {
	return m.rootDir
}

// CheckoutPath returns the deterministic checkout location for a URL. When a
// ref is supplied it is appended as "<identity>@<ref>" so differing refs of
// the same repository live in separate checkouts.
func (m *Manager) CheckoutPath(url, ref string) string {
	dir := NormalizeURL(url)
	if ref != "" {
		dir = dir + "@" + ref
	}
	return filepath.Join(m.rootDir, filepath.FromSlash(dir))
}

// EnsureCheckout makes sure a checkout of the repository exists and is as
// fresh as the network allows, returning its path. An update failure on an
// existing checkout is swallowed: the stale checkout remains authoritative.
// Only initial-clone failures propagate, and a failed clone leaves no partial
// directory behind.
func (m *Manager) EnsureCheckout(ctx context.Context, url, ref string) (string, error) {
	path := m.CheckoutPath(url, ref)

	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		m.update(ctx, path, url, ref)
		return path, nil
	}

	if err := m.clone(ctx, url, ref, path); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Manager) clone(ctx context.Context, url, ref, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create checkout directory")
	}

	args := []string{"clone", "--filter=blob:none"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, path)

	if output, timedOut, err := m.runGit(ctx, "", args...); err != nil {
		os.RemoveAll(path)
		return classify("clone", url, output, err, timedOut)
	}
	return nil
}

// update refreshes an existing checkout. Every failure here is absorbed: a
// pull of a fixed ref or tag commonly fails in a detached state, and network
// failure must not invalidate the local cache.
func (m *Manager) update(ctx context.Context, path, url, ref string) {
	log := logger.G(ctx).WithField("checkout", path)

	if output, timedOut, err := m.runGit(ctx, path, "fetch"); err != nil {
		log.WithError(classify("fetch", url, output, err, timedOut)).Debug("fetch failed; keeping stale checkout")
		return
	}

	if ref == "" {
		if output, timedOut, err := m.runGit(ctx, path, "pull"); err != nil {
			log.WithError(classify("pull", url, output, err, timedOut)).Debug("pull failed; keeping stale checkout")
		}
		return
	}

	if output, timedOut, err := m.runGit(ctx, path, "checkout", ref); err != nil {
		log.WithError(classify("checkout", url, output, err, timedOut)).Debug("checkout of ref failed")
		return
	}
	// best effort: pulling a tag or fixed ref fails in detached HEAD state
	if _, _, err := m.runGit(ctx, path, "pull", "origin", ref); err != nil {
		log.WithField("ref", ref).Debug("pull of fixed ref failed; detached state is expected")
	}
}

// Pull performs a best-effort fetch and pull of an existing checkout. Any
// failure is absorbed; the existing checkout remains authoritative. The fetch
// is retried once since transient transport errors dominate this path.
func (m *Manager) Pull(ctx context.Context, path string) {
	log := logger.G(ctx).WithField("checkout", path)

	err := retry.Do(
		func() error {
			output, timedOut, err := m.runGit(ctx, path, "fetch")
			if err != nil {
				gitErr := classify("fetch", "", output, err, timedOut)
				if gitErr.Kind == KindAuth {
					// auth failures are never retried
					return retry.Unrecoverable(gitErr)
				}
				return gitErr
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.WithError(err).Debug("fetch failed; keeping stale checkout")
		return
	}

	if output, timedOut, err := m.runGit(ctx, path, "pull"); err != nil {
		log.WithError(classify("pull", "", output, err, timedOut)).Debug("pull failed; keeping stale checkout")
	}
}

// HeadHash returns the revision the checkout currently points at. The second
// return value is false when the path does not exist or is not a git working
// tree; this is never an error.
func (m *Manager) HeadHash(ctx context.Context, path string) (string, bool) {
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return "", false
	}

	output, _, err := m.runGit(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return "", false
	}

	hash := strings.TrimSpace(output)
	if hash == "" {
		return "", false
	}
	return hash, true
}

// runGit executes one git command bounded by the manager's timeout. It
// returns the combined output, whether the timeout fired, and the error.
func (m *Manager) runGit(ctx context.Context, dir string, args ...string) (string, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(opCtx, m.gitBin, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	// keep git from prompting on the terminal for credentials
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	timedOut := opCtx.Err() == context.DeadlineExceeded
	return string(output), timedOut, err
}
