package cmd

import (
	stderrors "errors"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conform",
	Short: "conform checks a build tool against its documented behavioral contracts",
	// SilenceErrors is used to prevent cobra from printing the error,
	// as we handle it ourselves in the Execute function.
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Print the help message if no subcommand is provided
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// setupError marks failures before any scenario ran (bad suite file,
// missing matrix file), reported with exit code 2 so CI can tell a
// broken harness invocation from a failing tool.
type setupError struct{ err error }

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var se *setupError
	if stderrors.As(err, &se) {
		return 2
	}
	return 1
}
