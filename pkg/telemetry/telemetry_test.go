package telemetry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jobforge/jobforge/pkg/engine"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad exporter", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "jaeger"
		}, true},
		{"bad sampling rate", func(c *Config) { c.Tracing.SamplingRate = 1.5 }, true},
		{"metrics without address", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddress = ""
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewLogger(LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.NewComponentLogger("runner").WithRunID("r-1").Info("run started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`"message":"run started"`,
		`"component":"runner"`,
		`"run_id":"r-1"`,
		`"level":"info"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in log output: %s", want, out)
		}
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := NewLogger(LoggingConfig{
		Level:  "warn",
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn message should pass the filter")
	}
}

func metricsJob() *engine.Job {
	return engine.NewJob("demo").Add(
		engine.NewStage("build").Add(
			engine.NewStep("good", engine.ActionFunc(func(*engine.Context) error { return nil })),
			engine.NewStep("bad", engine.ActionFunc(func(*engine.Context) error {
				return errors.New("boom")
			})),
		),
		engine.NewStage("deploy").Add(
			engine.NewStep("release", engine.ActionFunc(func(*engine.Context) error { return nil })),
		),
	)
}

func TestMetricsListenerCountsRun(t *testing.T) {
	metrics, err := NewMetrics(MetricsConfig{
		Enabled:       true,
		ListenAddress: ":0",
		Namespace:     "test",
	})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	c := engine.NewContext(context.Background(), engine.WithListener(metrics.Listener()))
	// The failing step defaults the deploy stage into a skip.
	_ = engine.NewRunner().Run(c, metricsJob())

	if got := testutil.ToFloat64(metrics.runsStarted.WithLabelValues("demo")); got != 1 {
		t.Errorf("runs started: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.runsCompleted.WithLabelValues("demo", "failed")); got != 1 {
		t.Errorf("failed runs: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.scopesSkipped.WithLabelValues("stage")); got != 1 {
		t.Errorf("skipped stages: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.scopesExecuted.WithLabelValues("step", "failed")); got != 1 {
		t.Errorf("failed steps: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.scopesExecuted.WithLabelValues("step", "passed")); got != 1 {
		t.Errorf("passed steps: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.errorsRecorded); got != 1 {
		t.Errorf("errors recorded: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.activeRuns); got != 0 {
		t.Errorf("active runs after finish: got %v, want 0", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	metrics, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	metrics.RecordRunStarted("demo")
	metrics.RecordRunCompleted("demo", "passed", 0)
	metrics.RecordScopeSkipped("step")
	metrics.RecordError()

	c := engine.NewContext(context.Background(), engine.WithListener(metrics.Listener()))
	if err := engine.NewRunner().Run(c, engine.NewJob("empty")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestTracerListenerExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := NewTracer(TracingConfig{
		Enabled:      true,
		Exporter:     "stdout",
		SamplingRate: 1.0,
	}, "jobforge-test", "dev", "test", WithExportWriter(&buf))
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	ctx := context.Background()
	c := engine.NewContext(ctx, engine.WithListener(tracer.Listener(ctx)))
	_ = engine.NewRunner().Run(c, metricsJob())

	if err := tracer.ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Job demo", "Stage build", "Step good", "scope.status"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in exported spans", want)
		}
	}
	if !strings.Contains(out, "scope.skipped") {
		t.Errorf("skipped scope should appear as a span event")
	}
}

func TestTracerDisabled(t *testing.T) {
	tracer, err := NewTracer(TracingConfig{Enabled: false}, "jobforge-test", "dev", "test")
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	_, span := tracer.Start(context.Background(), "noop")
	span.End()
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
