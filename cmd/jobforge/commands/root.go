package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jobforge",
		Short: "JobForge - Pipeline Job Runner",
		Long: `JobForge executes pipeline jobs: trees of stages and steps with
run and skip conditions, ordered teardown, and scope-scoped error
tracking.

Features:
  - Declarative job trees built in Go
  - Hierarchical context values with scope-qualified lookup
  - Best-effort teardown walks at every scope exit
  - Console and Markdown run rendering
  - SQLite run history
  - Prometheus metrics and OpenTelemetry tracing`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newHistoryCommand())

	return rootCmd
}
