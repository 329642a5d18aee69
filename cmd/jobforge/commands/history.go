package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobforge/jobforge/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		dbPath string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Inspect recorded runs",
		Long: `List runs recorded in a history database, most recent first.
With a run id, show that run's per-scope results and events.`,
		Example: `  # List the last runs
  jobforge history --db jobforge.db

  # Show one run in full
  jobforge history --db jobforge.db 4c3f2a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0])
			}
			return listRuns(cmd, store, limit, offset)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "jobforge.db", "history database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func listRuns(cmd *cobra.Command, store stores.Store, limit, offset int) error {
	runs, err := store.ListRuns(cmd.Context(), limit, offset)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tJOB\tSTATUS\tSTARTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Job, run.Status,
			run.StartedAt.Format(time.RFC3339),
			runDuration(run))
	}
	return w.Flush()
}

func runDuration(run *stores.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

func showRun(cmd *cobra.Command, store stores.Store, runID string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Run %s\n", run.ID)
	fmt.Fprintf(out, "Job:     %s\n", run.Job)
	fmt.Fprintf(out, "Status:  %s\n", run.Status)
	fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Fprintf(out, "Ended:   %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	if run.Error != nil {
		fmt.Fprintf(out, "Error:   %s\n", *run.Error)
	}

	results, err := store.ListScopeResults(ctx, runID)
	if err != nil {
		return err
	}
	if len(results) > 0 {
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SCOPE\tTYPE\tSTATUS\tREASON")
		for _, result := range results {
			reason := ""
			if result.Reason != nil {
				reason = *result.Reason
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Path, result.Type, result.Status, reason)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	events, err := store.ListEvents(ctx, runID, nil, 0, 0)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		fmt.Fprintln(out)
		for _, event := range events {
			label := ""
			if event.Label != nil {
				label = " [" + *event.Label + "]"
			}
			fmt.Fprintf(out, "%s %-7s%s %s\n",
				event.Timestamp.Format(time.RFC3339), event.Level, label, event.Message)
		}
	}
	return nil
}
