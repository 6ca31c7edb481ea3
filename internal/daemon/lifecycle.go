package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/runger/burrow/internal/config"
)

// Run builds the daemon from configuration and serves until SIGINT,
// SIGTERM, or context cancellation.
func Run(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	if paths == nil {
		paths = config.DefaultPaths()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	server, cleanup, err := Build(cfg, paths, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}
