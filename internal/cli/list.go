package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/orbnauticus/dibi-go/fixture"
)

func newListCommand() *cobra.Command {
	var fixtures []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the scenarios of the fixture file and their expected outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.Load(fixtures...)
			if err != nil {
				return configError("loading fixture", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, scenario := range f.AllScenarios() {
				fmt.Fprintf(w, "%s\t%s\n", scenario.Name(), scenario.Expect)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVarP(&fixtures, "fixture", "f", nil, "Fixture files, the first readable one is used")

	return cmd
}
