// Package daemon implements the burrowd server: a JSON request/response
// protocol over a unix domain socket carrying search, dispatch, and
// index-management calls from the UI and the CLI.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/config"
	"github.com/runger/burrow/internal/index"
	"github.com/runger/burrow/internal/router"
	"github.com/runger/burrow/internal/storage"
)

// Version is set at build time.
var Version = "dev"

const (
	requestDeadline  = 30 * time.Second
	dispatchDeadline = 3 * time.Minute
)

// Server owns the socket, the lock file, and the idle watchdog. All
// domain work is delegated to the engine, dispatcher, indexer, and store.
type Server struct {
	engine     *router.Engine
	dispatcher *action.Dispatcher
	indexer    *index.Indexer
	store      storage.Store
	exec       action.Executor
	healthFn   func(ctx context.Context) map[string]bool

	paths      *config.Paths
	socketPath string
	logger     *slog.Logger

	listener net.Listener
	lock     *LockFile
	baseCtx  context.Context
	cancel   context.CancelFunc

	startTime    time.Time
	lastActivity time.Time
	idleTimeout  time.Duration
	historyCap   int
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

// ServerConfig collects the server's collaborators.
type ServerConfig struct {
	// Engine answers search calls (required).
	Engine *router.Engine
	// Dispatcher executes selected results (required).
	Dispatcher *action.Dispatcher
	// Indexer serves progress, reindex, and update calls (optional).
	Indexer *index.Indexer
	// Store backs history calls (required).
	Store storage.Store
	// Exec opens the config file for the ":config" settings action (optional).
	Exec action.Executor
	// Health probes external dependencies (optional).
	Health func(ctx context.Context) map[string]bool

	// Paths supplies the runtime directory layout (optional).
	Paths *config.Paths
	// SocketPath overrides the default socket location (optional).
	SocketPath string
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// IdleTimeout shuts the daemon down after inactivity; 0 disables it.
	IdleTimeout time.Duration
	// HistoryCap is the default history listing size when a request
	// carries no limit; 0 falls back to 50.
	HistoryCap int
}

// NewServer validates the configuration and builds a Server.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}

	paths := cfg.Paths
	if paths == nil {
		paths = config.DefaultPaths()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = paths.SocketFile()
	}

	now := time.Now()
	return &Server{
		engine:       cfg.Engine,
		dispatcher:   cfg.Dispatcher,
		indexer:      cfg.Indexer,
		store:        cfg.Store,
		exec:         cfg.Exec,
		healthFn:     cfg.Health,
		paths:        paths,
		socketPath:   socketPath,
		logger:       logger.With("component", "daemon"),
		lock:         NewLockFile(paths.LockFile()),
		startTime:    now,
		lastActivity: now,
		idleTimeout:  cfg.IdleTimeout,
		historyCap:   cfg.HistoryCap,
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start acquires the instance lock, binds the socket, and serves until
// the context is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.baseCtx = ctx
	s.cancel = cancel
	defer cancel()

	if err := os.MkdirAll(s.paths.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}
	if err := s.lock.Acquire(); err != nil {
		return err
	}

	if err := s.removeStaleSocket(); err != nil {
		_ = s.lock.Release()
		return err
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		_ = s.lock.Release()
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		_ = s.lock.Release()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener

	s.logger.Info("daemon starting",
		"socket", s.socketPath,
		"pid", os.Getpid(),
		"version", Version)

	s.wg.Add(1)
	go s.watchIdle(ctx)

	if s.indexer != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.indexer.RunPeriodic(ctx)
		}()
	}

	errChan := make(chan error, 1)
	go func() { errChan <- s.acceptLoop() }()

	select {
	case <-ctx.Done():
		s.Shutdown()
		<-errChan
		return nil
	case err := <-errChan:
		s.Shutdown()
		return err
	}
}

func (s *Server) acceptLoop() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdownChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn serves requests on one connection until the client closes
// it. A connection may carry any number of sequential requests.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	logger := s.logger.With("conn", uuid.NewString()[:8])
	logger.Debug("client connected")

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			logger.Debug("client disconnected")
			return
		}
		s.touchActivity()
		logger.Debug("request", "method", req.Method)

		resp := s.handle(s.baseCtx, &req)
		resp.OK = resp.Error == ""
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := enc.Encode(&resp); err != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Time{})
		if req.Method == MethodShutdown {
			go s.Shutdown()
			return
		}
	}
}

// Shutdown stops the server once; subsequent calls are no-ops.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Info("daemon shutting down")
		close(s.shutdownChan)
		if s.cancel != nil {
			s.cancel()
		}
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove socket", "path", s.socketPath, "err", err)
		}
		if err := s.lock.Release(); err != nil {
			s.logger.Warn("failed to release lock", "err", err)
		}
		s.logger.Info("daemon stopped")
	})
}

// removeStaleSocket deletes a leftover socket file when nothing answers
// on it. A live socket means another daemon instance.
func (s *Server) removeStaleSocket() error {
	if _, err := os.Stat(s.socketPath); os.IsNotExist(err) {
		return nil
	}
	conn, err := net.DialTimeout("unix", s.socketPath, 100*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s is active, another daemon is running", s.socketPath)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}

func processID() int {
	return os.Getpid()
}

func (s *Server) touchActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Server) getLastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// watchIdle shuts the daemon down after the idle timeout elapses with
// no requests. Disabled when the timeout is zero.
func (s *Server) watchIdle(ctx context.Context) {
	defer s.wg.Done()
	if s.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownChan:
			return
		case <-ticker.C:
			since := time.Since(s.getLastActivity())
			if since > s.idleTimeout {
				s.logger.Info("idle timeout reached", "idle", since, "timeout", s.idleTimeout)
				go s.Shutdown()
				return
			}
		}
	}
}
