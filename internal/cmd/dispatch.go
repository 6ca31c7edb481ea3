package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/ipc"
	"github.com/runger/burrow/internal/result"
)

var (
	dispatchModifier  string
	dispatchSecondary string
	dispatchQuery     string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Execute a search result",
	Long: `Execute a search result read as JSON from stdin.

This is the UI shell's half of the dispatch protocol: pipe one result
object from "burrow search --json" in, pass the held modifier key as a
flag. When the daemon answers with action "input", rerun with
--secondary to complete the two-phase flow.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read result from stdin: %w", err)
		}
		var res result.SearchResult
		if err := json.Unmarshal(data, &res); err != nil {
			return fmt.Errorf("invalid result JSON: %w", err)
		}

		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		// The CLI is stateless across invocations, so a secondary-input
		// round trip is replayed in one call: first dispatch to enter the
		// input phase, then again with the provided text.
		session, outcome, err := client.Dispatch(action.SessionState{}, res,
			result.Modifier(dispatchModifier), dispatchQuery, "")
		if err != nil {
			return err
		}
		if session.Active {
			if !cmd.Flags().Changed("secondary") {
				fmt.Printf("input required: %s\n", outcome.Placeholder)
				return nil
			}
			if _, outcome, err = client.Dispatch(session, res,
				result.Modifier(dispatchModifier), dispatchQuery, dispatchSecondary); err != nil {
				return err
			}
		}

		fmt.Println(styleOK.Render(outcome.Action))
		if outcome.Message != "" {
			fmt.Println(outcome.Message)
		}
		return nil
	},
}

func init() {
	dispatchCmd.Flags().StringVarP(&dispatchModifier, "modifier", "m", string(result.ModNone),
		"modifier key held on dispatch (none, shift, ctrl, alt, altgr, shift_ctrl)")
	dispatchCmd.Flags().StringVar(&dispatchSecondary, "secondary", "", "secondary input text")
	dispatchCmd.Flags().StringVar(&dispatchQuery, "query", "", "search field content, for restore on cancel")
}
