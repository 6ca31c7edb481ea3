// burrowd is the burrow background daemon. It owns the launch history
// database and content index, serves searches over a unix socket, and
// dispatches selected results. The burrow CLI spawns it on demand.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/runger/burrow/internal/config"
	"github.com/runger/burrow/internal/daemon"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "burrowd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	switch cfg.Daemon.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return daemon.Run(context.Background(), cfg, nil, logger)
}
