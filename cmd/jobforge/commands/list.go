package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobforge/jobforge/pkg/registry"

	// Register the built-in job catalog.
	_ "github.com/jobforge/jobforge/pkg/jobs"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := registry.Names()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs registered.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
