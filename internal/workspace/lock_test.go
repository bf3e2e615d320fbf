package workspace

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestRunLock_TryLockUnlock(t *testing.T) {
	dir := t.TempDir()
	l := NewRunLock(dir)

	acquired, err := l.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if !acquired {
		t.Fatal("TryLock should succeed when the lock is free")
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("lock file should exist: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
		t.Errorf("lock owner = %q, want %d", got, os.Getpid())
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	again := NewRunLock(dir)
	acquired, err = again.TryLock()
	if err != nil || !acquired {
		t.Fatalf("TryLock after Unlock = %v, %v", acquired, err)
	}
	_ = again.Unlock()
}

func TestRunLock_UnlockWithoutLock(t *testing.T) {
	l := NewRunLock(t.TempDir())

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock without TryLock should not error: %v", err)
	}
}

func TestRunLock_SecondHolderRefused(t *testing.T) {
	dir := t.TempDir()
	first := NewRunLock(dir)
	if ok, err := first.TryLock(); err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	defer func() { _ = first.Unlock() }()

	// flock locks belong to the open file description, so a second open
	// of the same path conflicts even within one process.
	second := NewRunLock(dir)
	ok, err := second.TryLock()
	if err != nil {
		t.Fatalf("second TryLock: %v", err)
	}
	if ok {
		_ = second.Unlock()
		t.Error("second TryLock should be refused while the first is held")
	}
}

func TestRunLock_InvalidDir(t *testing.T) {
	l := NewRunLock("/nonexistent/dir/path")
	if _, err := l.TryLock(); err == nil {
		t.Error("TryLock should fail for nonexistent directory")
	}
}
