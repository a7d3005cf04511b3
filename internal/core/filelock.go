package core

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// lockSession takes an exclusive advisory lock on the named session so two
// closes of the same session cannot interleave. The lock file lives next
// to the record; the session store only reads .json files.
func lockSession(orchestratorDir, name string) (unlock func() error, err error) {
	path := sessionLockPath(orchestratorDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	return lockFile(path)
}

func sessionLockPath(orchestratorDir, name string) string {
	return filepath.Join(orchestratorDir, ".sessions", "."+name+".lock")
}

// lockFile acquires an exclusive flock on path, creating it if needed. The
// returned function releases the lock and closes the file.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring lock on %s: %w", path, err)
	}
	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
