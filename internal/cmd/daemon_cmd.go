package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/config"
	"github.com/runger/burrow/internal/daemon"
	"github.com/runger/burrow/internal/ipc"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the burrowd daemon",
}

var daemonRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(cfg.Daemon.LogLevel),
		}))
		return daemon.Run(context.Background(), cfg, nil, logger)
	},
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ipc.IsDaemonRunning() {
			fmt.Println("daemon already running")
			return nil
		}
		if err := ipc.SpawnAndWait(cmd.Context(), 5*time.Second); err != nil {
			return err
		}
		fmt.Println("daemon started")
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ipc.IsDaemonRunning() {
			fmt.Println("daemon not running")
			return nil
		}
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Shutdown(); err != nil {
			return err
		}
		fmt.Println("daemon stopped")
		return nil
	},
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func init() {
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}
