package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/execabs"

	"github.com/runger/burrow/internal/config"
	"github.com/runger/burrow/internal/ipc"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check daemon health and external dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("%s config: %v\n", statusMark(false), err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("%s config\n", statusMark(true))
		}

		if ipc.IsDaemonRunning() {
			fmt.Printf("%s daemon\n", statusMark(true))
			if client, err := ipc.NewClient(); err == nil {
				defer client.Close()
				if health, err := client.Health(); err == nil {
					keys := make([]string, 0, len(health))
					for k := range health {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Printf("%s %s\n", statusMark(health[k]), k)
					}
				}
			}
		} else {
			fmt.Printf("%s daemon (not running, start with 'burrow daemon start')\n", statusMark(false))
		}

		// Host programs burrow shells out to. Missing optional tools
		// degrade a feature rather than break the daemon.
		tools := []struct {
			name     string
			purpose  string
			optional bool
		}{
			{cfg.Actions.Clipboard, "clipboard copy", false},
			{cfg.Actions.Typer, "keystroke injection", false},
			{cfg.Actions.Opener, "opening files and URLs", false},
			{"pdftotext", "PDF content extraction", true},
			{"pandoc", "rich document extraction", true},
		}
		for _, tool := range tools {
			if tool.name == "" {
				continue
			}
			_, err := execabs.LookPath(tool.name)
			mark := statusMark(err == nil)
			if err != nil && tool.optional {
				mark = styleWarn.Render("opt")
			}
			fmt.Printf("%s %s (%s)\n", mark, tool.name, tool.purpose)
		}

		if cfg.Vault.Command != "" {
			_, err := execabs.LookPath(cfg.Vault.Command)
			fmt.Printf("%s %s (vault backend)\n", statusMark(err == nil), cfg.Vault.Command)
		}
		if cfg.Actions.Terminal != "" {
			// The terminal setting may carry arguments; only the binary
			// needs to resolve.
			bin := strings.Fields(cfg.Actions.Terminal)[0]
			_, err := execabs.LookPath(bin)
			fmt.Printf("%s %s (terminal)\n", statusMark(err == nil), bin)
		}
		return nil
	},
}
