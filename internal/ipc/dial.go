// Package ipc is the client side of the burrowd socket protocol. It
// dials the daemon, spawning it on demand, and wraps each protocol
// method in a typed call.
package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/runger/burrow/internal/config"
)

// Timeouts per operation class.
const (
	// DialTimeout bounds the initial socket connection.
	DialTimeout = 500 * time.Millisecond

	// RequestTimeout bounds ordinary request/response round trips.
	RequestTimeout = 30 * time.Second

	// DispatchTimeout bounds dispatch calls, which may wait on a chat
	// model round trip.
	DispatchTimeout = 3 * time.Minute
)

// EnvSocket overrides the daemon socket path.
const EnvSocket = "BURROW_SOCKET"

// SocketPath returns the daemon socket path.
func SocketPath() string {
	if path := os.Getenv(EnvSocket); path != "" {
		return path
	}
	return config.DefaultPaths().SocketFile()
}

// SocketExists reports whether the daemon socket file is present.
func SocketExists() bool {
	_, err := os.Stat(SocketPath())
	return err == nil
}

// Dial connects to the daemon socket within timeout.
func Dial(timeout time.Duration) (net.Conn, error) {
	sockPath := SocketPath()
	if !SocketExists() {
		return nil, fmt.Errorf("socket not found: %s", sockPath)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}
