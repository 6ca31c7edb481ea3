package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/ipc"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the frecency-ranked launch history",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		entries, err := client.History(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(styleDim.Render("no launch history"))
			return nil
		}
		for _, e := range entries {
			last := time.UnixMilli(e.LastUsedMs).Format("2006-01-02 15:04")
			fmt.Printf("%s  %s\n", styleName.Render(e.Name),
				styleDim.Render(fmt.Sprintf("%d launches, last %s", e.Count, last)))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all launch history",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		msg, err := client.ClearHistory()
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		msg, err := client.RemoveHistory(args[0])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum entries to list")
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyRemoveCmd)
}
