package cli

import (
	"github.com/spf13/cobra"

	_ "github.com/orbnauticus/dibi-go/dibi/driver/all" // backend registration
	"github.com/orbnauticus/dibi-go/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
)

// NewRootCommand builds the dibi-conformance command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dibi-conformance",
		Short: "Conformance tests for dibi database backends",
		Long: `dibi-conformance opens every registered backend with the scenarios of a
fixture file and checks that each one connects and stores data, or fails
with the expected kind of error.

The exit code of "run" is 2 if any scenario errored, 1 if any failed and
0 otherwise.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose, jsonOutput, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newRunCommand(), newListCommand(), newVersionCommand())

	return root
}

// Execute runs the command line.
func Execute() error {
	return NewRootCommand().Execute()
}
