package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbnauticus/dibi-go/dibi"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the package name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), dibi.FullName())
			return err
		},
	}
}
