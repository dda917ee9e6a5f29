package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	lockFileName = ".skill-lock.json"
	skillboxDir  = ".skillbox"
)

// Store loads and persists the manifest at a well-known path
type Store struct {
	path string
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithPath overrides the manifest location
func WithPath(path string) StoreOption {
	return func(s *Store) {
		s.path = path
	}
}

// NewStore creates a manifest store. The default location is
// ~/.skillbox/.skill-lock.json.
func NewStore(opts ...StoreOption) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}

	if s.path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get user home directory")
		}
		s.path = filepath.Join(homeDir, skillboxDir, lockFileName)
	}

	return s, nil
}

// Path returns the manifest location
func (s *Store) Path() string {
	return s.path
}

// Read loads the manifest. A missing or unparsable file yields a fresh empty
// manifest at the current version, persisted immediately; an older schema is
// migrated forward and the migrated result persisted before returning.
func (s *Store) Read() (*LockFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read manifest %s", s.path)
		}
		return s.reset()
	}

	lock := &LockFile{}
	if err := json.Unmarshal(data, lock); err != nil {
		// corrupt manifests are treated as absent, never as fatal
		return s.reset()
	}

	lock.ensureMaps()

	if lock.Version < CurrentVersion {
		lock.Migrate()
		if err := s.Write(lock); err != nil {
			return nil, errors.Wrap(err, "failed to persist migrated manifest")
		}
	}

	return lock, nil
}

func (s *Store) reset() (*LockFile, error) {
	lock := New()
	if err := s.Write(lock); err != nil {
		return nil, errors.Wrap(err, "failed to initialize manifest")
	}
	return lock, nil
}

// Write persists the manifest with write-new-then-replace discipline so a
// crash mid-write can never leave a truncated manifest readable by a
// concurrent reader.
func (s *Store) Write(lock *LockFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create manifest directory")
	}

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".skill-lock-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary manifest")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temporary manifest")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temporary manifest")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to set manifest permissions")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace manifest")
	}
	return nil
}
