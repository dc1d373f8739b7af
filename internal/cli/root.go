package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd holds every sub-command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fwatch",
		Short: "Re-run a command whenever a watched file is written",
		Long: `fwatch watches directory trees and runs a command each time a file
inside them is closed after writing. "{}" in the command is replaced with the
path of the file. Only one invocation runs at a time: a new change kills the
previous run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newWatchCmd(), newCompletionCmd(), newInitCmd())
	return root
}

// Execute runs the CLI. Typically called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
