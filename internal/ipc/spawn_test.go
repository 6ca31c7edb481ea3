package ipc

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// swapSeams replaces the spawn seams for one test and restores them on
// cleanup. Tests using it must not run in parallel.
func swapSeams(t *testing.T) {
	t.Helper()
	origDial := dialFn
	origExists := socketExistsFn
	origPath := socketPathFn
	origRemove := removeFileFn
	origDelay := staleSocketRetryDelay
	t.Cleanup(func() {
		dialFn = origDial
		socketExistsFn = origExists
		socketPathFn = origPath
		removeFileFn = origRemove
		staleSocketRetryDelay = origDelay
	})
	staleSocketRetryDelay = time.Millisecond
}

func TestEnsureDaemonFastPathDoesNotSpawn(t *testing.T) {
	swapSeams(t)

	dials := 0
	socketExistsFn = func() bool { return true }
	dialFn = func() (io.Closer, error) {
		dials++
		return nopCloser{}, nil
	}
	removeFileFn = func(string) error {
		t.Fatal("live socket must not be removed")
		return nil
	}

	require.NoError(t, EnsureDaemon())
	assert.Equal(t, 1, dials)
}

func TestRemoveStaleSocketRetriesBeforeDeleting(t *testing.T) {
	swapSeams(t)

	dials := 0
	removed := ""
	socketExistsFn = func() bool { return true }
	socketPathFn = func() string { return "/tmp/burrow-test.sock" }
	dialFn = func() (io.Closer, error) {
		dials++
		return nil, errors.New("connection refused")
	}
	removeFileFn = func(path string) error {
		removed = path
		return nil
	}

	require.NoError(t, removeStaleSocket(context.Background()))
	assert.Equal(t, staleSocketDialAttempts, dials)
	assert.Equal(t, "/tmp/burrow-test.sock", removed)
}

func TestRemoveStaleSocketKeepsSocketThatRecovers(t *testing.T) {
	swapSeams(t)

	dials := 0
	socketExistsFn = func() bool { return true }
	dialFn = func() (io.Closer, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("connection refused")
		}
		return nopCloser{}, nil
	}
	removeFileFn = func(string) error {
		t.Fatal("recovered socket must not be removed")
		return nil
	}

	require.NoError(t, removeStaleSocket(context.Background()))
	assert.Equal(t, 2, dials)
}

func TestRemoveStaleSocketNoSocket(t *testing.T) {
	swapSeams(t)

	socketExistsFn = func() bool { return false }
	dialFn = func() (io.Closer, error) {
		t.Fatal("no dial expected without a socket")
		return nil, nil
	}

	require.NoError(t, removeStaleSocket(context.Background()))
}

func TestRemoveStaleSocketHonorsCancellation(t *testing.T) {
	swapSeams(t)

	socketExistsFn = func() bool { return true }
	dialFn = func() (io.Closer, error) { return nil, errors.New("connection refused") }
	removeFileFn = func(string) error {
		t.Fatal("cancelled probe must not remove the socket")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := removeStaleSocket(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindDaemonBinaryEnvOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, DaemonBinaryName)
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv(EnvDaemonPath, bin)

	found, err := findDaemonBinary()
	require.NoError(t, err)
	assert.Equal(t, bin, found)
}

func TestFindDaemonBinaryEnvMissingFallsThrough(t *testing.T) {
	t.Setenv(EnvDaemonPath, filepath.Join(t.TempDir(), "does-not-exist"))

	// Discovery must not fail outright on a bad override; it falls back
	// to the executable dir and PATH. Whatever the outcome, the bad
	// override path is never returned.
	found, err := findDaemonBinary()
	if err == nil {
		assert.NotContains(t, found, "does-not-exist")
	}
}
