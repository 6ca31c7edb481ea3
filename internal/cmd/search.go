package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/burrow/internal/ipc"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a query through the daemon",
	Long: `Run a query through the daemon's router and print the ranked results.

The query string carries the routing prefix, so special searches need
quoting: burrow search ":" lists settings, burrow search " *notes" runs
a semantic content search.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient()
		if err != nil {
			return fmt.Errorf("daemon unreachable: %w", err)
		}
		defer client.Close()

		query := strings.Join(args, " ")
		results, err := client.Search(query)
		if err != nil {
			return err
		}

		if searchJSON {
			return json.NewEncoder(os.Stdout).Encode(results)
		}
		if len(results) == 0 {
			fmt.Println(styleDim.Render("no results"))
			return nil
		}
		for _, r := range results {
			line := fmt.Sprintf("%s %s", styleCategory.Render(string(r.Category)), styleName.Render(r.Name))
			if r.Description != "" {
				line += "  " + styleDim.Render(r.Description)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}
