// Package config provides configuration management for burrow.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds the directory layout used by burrow.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/burrow)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/burrow)
	DataDir string

	// RuntimeDir is the directory for runtime files like sockets and PID files
	RuntimeDir string
}

// DefaultPaths returns the default paths based on the XDG Base Directory spec.
func DefaultPaths() *Paths {
	home := homeDir()

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join(home, ".burrow", "run")
	} else {
		runtimeDir = filepath.Join(runtimeDir, "burrow")
	}

	return &Paths{
		ConfigDir:  filepath.Join(configHome, "burrow"),
		DataDir:    filepath.Join(dataHome, "burrow"),
		RuntimeDir: runtimeDir,
	}
}

// ConfigFile returns the path to the main configuration file.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// DBFile returns the path to the SQLite database.
func (p *Paths) DBFile() string {
	return filepath.Join(p.DataDir, "burrow.db")
}

// SocketFile returns the path to the daemon unix socket.
func (p *Paths) SocketFile() string {
	return filepath.Join(p.RuntimeDir, "burrowd.sock")
}

// LockFile returns the path to the daemon lock file.
func (p *Paths) LockFile() string {
	return filepath.Join(p.RuntimeDir, "burrowd.lock")
}

// EnsureDirectories creates the config, data, and runtime directories.
// The runtime directory holds the socket and is restricted to the owner.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.MkdirAll(p.RuntimeDir, 0o700)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// ExpandTilde replaces a leading "~/" with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" {
		return homeDir()
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
