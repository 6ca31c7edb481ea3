package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and dependency health",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ipc.IsDaemonRunning() {
			fmt.Println(styleFail.Render("daemon: not running"))
			return nil
		}
		client, err := ipc.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()

		st, err := client.Status()
		if err != nil {
			return err
		}
		fmt.Printf("daemon: %s  %s\n", statusMark(true),
			styleDim.Render(fmt.Sprintf("pid %d, version %s, up %s",
				st.PID, st.Version, (time.Duration(st.UptimeSecs)*time.Second).String())))
		fmt.Printf("history: %d entries\n", st.HistoryCount)
		fmt.Printf("index: %d files, %s\n", st.VectorCount, st.IndexerPhase)

		health, err := client.Health()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(health))
		for k := range health {
			if k != "daemon" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %s\n", k, statusMark(health[k]))
		}
		return nil
	},
}
