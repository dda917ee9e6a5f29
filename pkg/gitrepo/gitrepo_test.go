package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"https with .git", "https://h/o/r.git", "h/o/r"},
		{"https without .git", "https://h/o/r", "h/o/r"},
		{"scp-like ssh", "git@h:o/r.git", "h/o/r"},
		{"ssh scheme with userinfo", "ssh://git@h/o/r", "h/o/r"},
		{"git protocol", "git://h/o/r.git", "h/o/r"},
		{"https with credentials", "https://user:token@h/o/r.git", "h/o/r"},
		{"trailing slash", "https://h/o/r/", "h/o/r"},
		{"surrounding whitespace", "  https://h/o/r.git\n", "h/o/r"},
		{"already normalized", "h/o/r", "h/o/r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.input))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://h/o/r.git",
		"git@h:o/r.git",
		"ssh://git@h/o/r",
		"h/o/r",
	}
	for _, input := range inputs {
		once := NormalizeURL(input)
		assert.Equal(t, once, NormalizeURL(once), "normalize must be idempotent for %s", input)
	}
}

func TestCheckoutPath(t *testing.T) {
	m, err := NewManager(WithRootDir("/cache/repos"))
	require.NoError(t, err)

	assert.Equal(t,
		filepath.Join("/cache/repos", "h", "o", "r"),
		m.CheckoutPath("https://h/o/r.git", ""))

	assert.Equal(t,
		filepath.Join("/cache/repos", "h", "o", "r@v1.2.0"),
		m.CheckoutPath("https://h/o/r.git", "v1.2.0"))
}

func TestNewManagerRootFromEnv(t *testing.T) {
	t.Setenv(ReposDirEnv, "/custom/repos")

	m, err := NewManager()
	require.NoError(t, err)
	assert.Equal(t, "/custom/repos", m.RootDir())
}

func TestNewManagerDefaultRoot(t *testing.T) {
	t.Setenv(ReposDirEnv, "")

	m, err := NewManager()
	require.NoError(t, err)
	assert.Contains(t, m.RootDir(), filepath.Join(".skillbox", "repos"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		timedOut bool
		want     ErrorKind
	}{
		{"timeout wins", "whatever", true, KindTimeout},
		{"authentication failed", "fatal: Authentication failed for 'https://h/o/r'", false, KindAuth},
		{"could not read username", "fatal: could not read Username for 'https://h': terminal prompts disabled", false, KindAuth},
		{"permission denied", "git@h: Permission denied (publickey).", false, KindAuth},
		{"repository not found", "remote: Repository not found.", false, KindAuth},
		{"http 403", "The requested URL returned error: 403", false, KindAuth},
		{"network failure", "fatal: unable to access 'https://h/o/r': Could not resolve host: h", false, KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitErr := classify("clone", "https://h/o/r", tt.output, errors.New("exit status 128"), tt.timedOut)
			assert.Equal(t, tt.want, gitErr.Kind)
		})
	}
}

func TestErrorMessageCarriesGuidance(t *testing.T) {
	authErr := &Error{Kind: KindAuth, Op: "clone", URL: "https://h/o/r", Err: errors.New("exit status 128")}
	assert.Contains(t, authErr.Error(), "verify the URL and your access rights")

	timeoutErr := &Error{Kind: KindTimeout, Op: "fetch", Err: errors.New("signal: killed")}
	assert.Contains(t, timeoutErr.Error(), "timed out")

	genericErr := &Error{Kind: KindGeneric, Op: "pull", Err: errors.New("exit status 1")}
	assert.NotContains(t, genericErr.Error(), "timed out")
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "authentication", KindAuth.String())
	assert.Equal(t, "generic", KindGeneric.String())
}

func TestHeadHashAbsent(t *testing.T) {
	m, err := NewManager(WithRootDir(t.TempDir()))
	require.NoError(t, err)

	t.Run("path does not exist", func(t *testing.T) {
		hash, ok := m.HeadHash(context.Background(), filepath.Join(t.TempDir(), "nope"))
		assert.False(t, ok)
		assert.Empty(t, hash)
	})

	t.Run("path is not a working tree", func(t *testing.T) {
		hash, ok := m.HeadHash(context.Background(), t.TempDir())
		assert.False(t, ok)
		assert.Empty(t, hash)
	})
}

// writeStubGit creates an executable that mimics git for transport tests
func writeStubGit(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub git scripts are POSIX-only")
	}
	path := filepath.Join(t.TempDir(), "git-stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestEnsureCheckoutCloneFailureCleansUp(t *testing.T) {
	stub := writeStubGit(t, `echo "fatal: unable to access: could not resolve host" >&2; exit 128`)
	root := t.TempDir()
	m, err := NewManager(WithRootDir(root), WithGitBinary(stub))
	require.NoError(t, err)

	_, err = m.EnsureCheckout(context.Background(), "https://h/o/r.git", "")
	require.Error(t, err)

	var gitErr *Error
	require.True(t, errors.As(err, &gitErr))
	assert.Equal(t, KindGeneric, gitErr.Kind)
	assert.Equal(t, "clone", gitErr.Op)

	// no partial directory left behind
	_, statErr := os.Stat(m.CheckoutPath("https://h/o/r.git", ""))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureCheckoutCloneAuthFailure(t *testing.T) {
	stub := writeStubGit(t, `echo "remote: Repository not found." >&2; exit 128`)
	m, err := NewManager(WithRootDir(t.TempDir()), WithGitBinary(stub))
	require.NoError(t, err)

	_, err = m.EnsureCheckout(context.Background(), "https://h/o/private.git", "")
	require.Error(t, err)

	var gitErr *Error
	require.True(t, errors.As(err, &gitErr))
	assert.Equal(t, KindAuth, gitErr.Kind)
}

func TestEnsureCheckoutCloneTimeout(t *testing.T) {
	stub := writeStubGit(t, `sleep 5`)
	m, err := NewManager(WithRootDir(t.TempDir()), WithGitBinary(stub), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	_, err = m.EnsureCheckout(context.Background(), "https://h/o/slow.git", "")
	require.Error(t, err)

	var gitErr *Error
	require.True(t, errors.As(err, &gitErr))
	assert.Equal(t, KindTimeout, gitErr.Kind)
}

func TestEnsureCheckoutUpdateFailureIsSwallowed(t *testing.T) {
	stub := writeStubGit(t, `echo "fatal: unable to access: network is unreachable" >&2; exit 128`)
	root := t.TempDir()
	m, err := NewManager(WithRootDir(root), WithGitBinary(stub))
	require.NoError(t, err)

	// pre-existing checkout: updates are best-effort
	path := m.CheckoutPath("https://h/o/r.git", "")
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))

	got, err := m.EnsureCheckout(context.Background(), "https://h/o/r.git", "")
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestPullFailureIsSwallowed(t *testing.T) {
	stub := writeStubGit(t, `exit 1`)
	m, err := NewManager(WithRootDir(t.TempDir()), WithGitBinary(stub))
	require.NoError(t, err)

	path := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".git"), 0o755))

	// must not panic or error; the stale checkout stays authoritative
	m.Pull(context.Background(), path)
}
