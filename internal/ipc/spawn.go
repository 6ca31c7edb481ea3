package ipc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/execabs"

	"github.com/runger/burrow/internal/config"
)

// DaemonBinaryName is the daemon executable looked up on spawn.
const DaemonBinaryName = "burrowd"

// EnvDaemonPath overrides daemon binary discovery.
const EnvDaemonPath = "BURROW_DAEMON_PATH"

var (
	// Test seams for spawn and socket probing behavior.
	dialFn         = func() (io.Closer, error) { return Dial(DialTimeout) }
	socketExistsFn = SocketExists
	socketPathFn   = SocketPath
	removeFileFn   = os.Remove

	// Retry transient dial failures before deleting an existing socket.
	staleSocketDialAttempts = 3
	staleSocketRetryDelay   = 25 * time.Millisecond
)

// EnsureDaemon makes sure a daemon is reachable, spawning one if the
// socket is missing or dead.
func EnsureDaemon() error {
	if socketExistsFn() {
		conn, err := dialFn()
		if err == nil {
			if conn != nil {
				_ = conn.Close()
			}
			return nil
		}
		if err := removeStaleSocket(context.Background()); err != nil {
			return err
		}
	}
	return SpawnDaemon()
}

// SpawnDaemon starts the daemon detached. It does not wait for the
// daemon to become ready.
func SpawnDaemon() error {
	return SpawnDaemonContext(context.Background())
}

// SpawnDaemonContext starts the daemon detached, honoring cancellation
// up to the moment the process is created.
func SpawnDaemonContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	paths := config.DefaultPaths()
	if err := os.MkdirAll(paths.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("failed to create runtime dir: %w", err)
	}
	if err := removeStaleSocket(ctx); err != nil {
		return err
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(filepath.Join(paths.RuntimeDir, "burrowd.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logFile, _ = os.Open(os.DevNull)
	}
	defer logFile.Close()

	// execabs prevents executing binaries resolved to relative paths.
	cmd := execabs.Command(daemonPath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	setProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	// No Wait: the daemon must outlive this process.
	return nil
}

// SpawnAndWait spawns the daemon and blocks until the socket answers or
// timeout expires.
func SpawnAndWait(ctx context.Context, timeout time.Duration) error {
	if err := SpawnDaemonContext(ctx); err != nil {
		return err
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("daemon did not start within %v", timeout)
		case <-ticker.C:
			if !socketExistsFn() {
				continue
			}
			conn, err := dialFn()
			if err == nil {
				if conn != nil {
					_ = conn.Close()
				}
				return nil
			}
		}
	}
}

func findDaemonBinary() (string, error) {
	if path := os.Getenv(EnvDaemonPath); path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", EnvDaemonPath, err)
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath, nil
		}
	}

	// Same directory as the current executable, then PATH, then the
	// usual install locations.
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), DaemonBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(DaemonBinaryName); err == nil {
		if absPath, absErr := filepath.Abs(path); absErr == nil {
			return absPath, nil
		}
		return path, nil
	}

	candidates := []string{
		"/usr/local/bin/" + DaemonBinaryName,
		"/usr/bin/" + DaemonBinaryName,
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", DaemonBinaryName),
			filepath.Join(home, "go", "bin", DaemonBinaryName))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("daemon binary %q not found", DaemonBinaryName)
}

// IsDaemonRunning reports whether a daemon answers on the socket.
func IsDaemonRunning() bool {
	if !SocketExists() {
		return false
	}
	conn, err := Dial(DialTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func removeStaleSocket(ctx context.Context) error {
	if !socketExistsFn() {
		return nil
	}
	// Retry before deleting so a transient failure does not take down an
	// active socket.
	for attempt := 0; attempt < staleSocketDialAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := dialFn()
		if err == nil {
			if conn != nil {
				_ = conn.Close()
			}
			return nil
		}
		if attempt < staleSocketDialAttempts-1 {
			timer := time.NewTimer(staleSocketRetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	if err := removeFileFn(socketPathFn()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}
