package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/ipc"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the content index",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		var msg string
		if indexFull {
			msg, err = client.Reindex()
		} else {
			msg, err = client.Update()
		}
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var indexProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show indexer progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		p, err := client.Progress()
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Println(styleDim.Render("no indexer"))
			return nil
		}
		if p.Running {
			fmt.Printf("%s %d/%d", p.Phase, p.Processed, p.Total)
			if p.CurrentFile != "" {
				fmt.Printf("  %s", styleDim.Render(p.CurrentFile))
			}
			if p.Errors > 0 {
				fmt.Printf("  %s", styleWarn.Render(fmt.Sprintf("%d errors", p.Errors)))
			}
			fmt.Println()
			return nil
		}
		if p.LastResult != "" {
			fmt.Println(p.LastResult)
		} else {
			fmt.Println("idle")
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "rebuild the index from scratch")
	indexCmd.AddCommand(indexProgressCmd)
}
