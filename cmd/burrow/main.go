// burrow is the command-line front end to the burrowd daemon: search,
// dispatch, history, and index management from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/runger/burrow/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "burrow: %v\n", err)
		os.Exit(1)
	}
}
