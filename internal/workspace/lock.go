package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is the lock file created in the git directory while a run
// owns the working tree.
const LockFileName = "crucible.lock"

// RunLock provides cross-process mutual exclusion for runs against one
// working tree using flock(2). The lock is released by the kernel if the
// process dies, so a stale file never blocks a later run.
type RunLock struct {
	path string
	file *os.File
}

// NewRunLock creates a RunLock whose file lives in gitDir.
func NewRunLock(gitDir string) *RunLock {
	return &RunLock{
		path: filepath.Join(gitDir, LockFileName),
	}
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}

// TryLock attempts to acquire the lock without blocking.
// Returns false if another process holds it.
func (l *RunLock) TryLock() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	// Record the owner for anyone inspecting the file.
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	return true, nil
}

// Unlock releases the lock. The file is left in place; removing it would
// race with a process that has just opened it.
func (l *RunLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		l.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := l.file.Close()
	l.file = nil
	return err
}
