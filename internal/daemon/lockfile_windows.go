//go:build windows

package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFile approximates the Unix flock discipline with an exclusive
// create. Stale files from dead processes are detected by PID probe.
type LockFile struct {
	path     string
	acquired bool
}

func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

func (l *LockFile) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}
		pid := readLockPID(l.path)
		if pid > 0 && isProcessAlive(pid) {
			return fmt.Errorf("daemon already running (pid %d), lock file: %s", pid, l.path)
		}
		_ = os.Remove(l.path)
		f, err = os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to acquire lock after stale cleanup: %w", err)
		}
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("failed to write pid to lock file: %w", err)
	}
	l.acquired = true
	return nil
}

func (l *LockFile) Release() error {
	if !l.acquired {
		return nil
	}
	l.acquired = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

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

func isProcessAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
