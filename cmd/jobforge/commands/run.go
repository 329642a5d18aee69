package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jobforge/jobforge/pkg/config"
	"github.com/jobforge/jobforge/pkg/engine"
	"github.com/jobforge/jobforge/pkg/registry"
	"github.com/jobforge/jobforge/pkg/render"
	"github.com/jobforge/jobforge/pkg/stores"
	"github.com/jobforge/jobforge/pkg/telemetry"

	// Register the built-in job catalog.
	_ "github.com/jobforge/jobforge/pkg/jobs"
)

func newRunCommand() *cobra.Command {
	opts := &config.RunOptions{}
	var (
		metricsListen string
		traceStdout   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a registered job",
		Long: `Execute a job from the built-in catalog.

Seed values come from an optional YAML values file and from repeated
--value key=value flags; the flags win. Inside GitHub Actions the
renderer defaults to collapsible Markdown, elsewhere to the console.`,
		Example: `  # Run the change verification job
  jobforge run --job verify-change -v src_path=pkg -v tests_path=pkg

  # Seed values from a file, then override one of them
  jobforge run -j verify-change --values-from ci.yaml -v packages=./pkg/...

  # Record the run in a history database
  jobforge run -j verify-change -v src_path=pkg -v tests_path=pkg --history jobforge.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Renderer == "" {
				opts.Renderer = defaultRenderer()
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return runJob(cmd, opts, metricsListen, traceStdout)
		},
	}

	cmd.Flags().StringVarP(&opts.Job, "job", "j", "", "name of the job to run (required)")
	cmd.Flags().StringArrayVarP(&opts.Pairs, "value", "v", nil, "key=value pair to seed the run context (repeatable)")
	cmd.Flags().StringVar(&opts.ValuesFile, "values-from", "", "YAML file of seed values")
	cmd.Flags().StringVar(&opts.Renderer, "renderer", "", "status renderer: console, markdown, or none")
	cmd.Flags().BoolVar(&opts.ShowDetail, "show-detail", false, "include detail messages in the rendered output")
	cmd.Flags().StringVar(&opts.HistoryPath, "history", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address during the run")
	cmd.Flags().BoolVar(&traceStdout, "trace", false, "emit OpenTelemetry spans to stdout")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

// defaultRenderer picks Markdown inside GitHub Actions, console elsewhere.
func defaultRenderer() string {
	if os.Getenv("GITHUB_ACTIONS") != "" {
		return "markdown"
	}
	return "console"
}

func runJob(cmd *cobra.Command, opts *config.RunOptions, metricsListen string, traceStdout bool) error {
	ctx := cmd.Context()

	job, err := registry.Lookup(opts.Job)
	if err != nil {
		return err
	}

	seed, err := opts.SeedValues()
	if err != nil {
		return err
	}

	ctxOpts := []engine.ContextOption{engine.WithValues(seed)}

	switch opts.Renderer {
	case "console":
		ctxOpts = append(ctxOpts, engine.WithListener(
			render.NewConsoleWriter(cmd.OutOrStdout(), render.ConsoleShowDetail(opts.ShowDetail))))
	case "markdown":
		ctxOpts = append(ctxOpts, engine.WithListener(
			render.NewMarkdownWriter(cmd.OutOrStdout(),
				render.ShowDetail(opts.ShowDetail),
				render.CollapsibleOutput(true))))
	}

	if opts.HistoryPath != "" {
		store, err := openStore(cmd, opts.HistoryPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("Closing history store failed")
			}
		}()
		ctxOpts = append(ctxOpts, engine.WithListener(stores.NewRecorder(store)))
	}

	if metricsListen != "" {
		metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
			Enabled:       true,
			ListenAddress: metricsListen,
			Path:          "/metrics",
			Namespace:     "jobforge",
		})
		if err != nil {
			return err
		}
		if err := metrics.StartMetricsServer(); err != nil {
			return err
		}
		ctxOpts = append(ctxOpts, engine.WithListener(metrics.Listener()))
	}

	if traceStdout {
		tracer, err := telemetry.NewTracer(telemetry.TracingConfig{
			Enabled:      true,
			Exporter:     "stdout",
			SamplingRate: 1.0,
		}, "jobforge", "", "")
		if err != nil {
			return err
		}
		defer func() {
			if err := tracer.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
		ctxOpts = append(ctxOpts, engine.WithListener(tracer.Listener(ctx)))
	}

	logCfg := telemetry.DefaultConfig().Logging
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := telemetry.NewLogger(logCfg)
	if err != nil {
		return err
	}

	runner := engine.NewRunner(engine.WithLogger(logger.Zerolog()))
	runCtx := engine.NewContext(ctx, ctxOpts...)
	if err := runner.Run(runCtx, job); err != nil {
		return fmt.Errorf("job %q failed: %w", opts.Job, err)
	}
	return nil
}

func openStore(cmd *cobra.Command, path string) (stores.Store, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
