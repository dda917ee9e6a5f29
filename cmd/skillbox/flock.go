package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/logger"
)

const lockAcquireTimeout = 10 * time.Second

// acquireCommandLock obtains the per-user advisory lock that serializes
// mutating skillbox commands. The lock file itself is a single shared
// resource with no built-in locking, so only one writer may run at a time.
func acquireCommandLock() (release func(), err error) {
	path, err := commandLockPath()
	if err != nil {
		return nil, err
	}

	l := flock.New(path)
	deadline := time.Now().Add(lockAcquireTimeout)
	waiting := false
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, errors.Wrap(err, "cannot acquire skillbox lock")
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Errorf("another skillbox command is in progress (lock: %s)", path)
		}
		if !waiting {
			logger.L.WithField("lock", path).Debug("waiting for another skillbox command to finish")
			waiting = true
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func commandLockPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	dir := filepath.Join(home, ".skillbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "cannot create skillbox directory")
	}
	return filepath.Join(dir, "skillbox.lock"), nil
}
