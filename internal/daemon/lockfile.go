//go:build !windows

package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// LockFile holds an exclusive flock(2) lock so only one daemon instance
// runs per user. The holder's PID is written into the file for
// diagnostics and stale-lock recovery.
type LockFile struct {
	file *os.File
	path string
}

// NewLockFile creates a LockFile at path. The lock is not acquired
// until Acquire is called.
func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

// Acquire takes an exclusive non-blocking lock. If a previous daemon
// crashed and left a lock behind, the stale file is removed and the
// acquisition retried once.
func (l *LockFile) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := l.tryLock()
	if err == nil {
		l.file = f
		return nil
	}
	if !errors.Is(err, errLockHeld) {
		return err
	}

	pid := readLockPID(l.path)
	if pid > 0 && isProcessAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d), lock file: %s", pid, l.path)
	}

	// Stale lock from a dead process.
	_ = os.Remove(l.path)
	f, err = l.tryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock after stale cleanup: %w", err)
	}
	l.file = f
	return nil
}

var errLockHeld = errors.New("lock held by another process")

func (l *LockFile) tryLock() (*os.File, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, errLockHeld
		}
		return nil, fmt.Errorf("flock %s: %w", l.path, err)
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pid to lock file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to sync lock file: %w", err)
	}
	return f, nil
}

// Release drops the lock and removes the file.
func (l *LockFile) Release() error {
	if l.file == nil {
		return nil
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *LockFile) Path() string {
	return l.path
}

func readLockPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// isProcessAlive probes pid with signal 0. On Unix FindProcess always
// succeeds, so the signal is the only real check.
func isProcessAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
