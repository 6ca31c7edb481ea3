package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/daemon"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the burrow version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("burrow %s\n", daemon.Version)
	},
}
