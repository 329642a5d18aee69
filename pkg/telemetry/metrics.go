package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobforge/jobforge/pkg/engine"
)

// Metrics provides Prometheus metrics for job runs on a private
// registry.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Scope metrics
	scopesExecuted *prometheus.CounterVec
	scopesSkipped  *prometheus.CounterVec
	scopeDuration  *prometheus.HistogramVec

	// Error metrics
	errorsRecorded   prometheus.Counter
	teardownWarnings prometheus.Counter

	// System metrics
	activeRuns prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given
// configuration. A disabled configuration yields a no-op instance.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of job runs started",
			},
			[]string{"job"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of job runs completed",
			},
			[]string{"job", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of job runs in seconds",
				Buckets:   buckets,
			},
			[]string{"job", "status"},
		),

		scopesExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scopes_executed_total",
				Help:      "Total number of scopes executed",
			},
			[]string{"type", "status"},
		),
		scopesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scopes_skipped_total",
				Help:      "Total number of scopes skipped",
			},
			[]string{"type"},
		),
		scopeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scope_duration_seconds",
				Help:      "Duration of scope execution in seconds",
				Buckets:   buckets,
			},
			[]string{"type"},
		),

		errorsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_recorded_total",
				Help:      "Total number of errors recorded during runs",
			},
		),
		teardownWarnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "teardown_warnings_total",
				Help:      "Total number of teardown warnings",
			},
		),

		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Current number of active runs",
			},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.scopesExecuted,
		m.scopesSkipped,
		m.scopeDuration,
		m.errorsRecorded,
		m.teardownWarnings,
		m.activeRuns,
	)

	return m, nil
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(job string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(job).Inc()
	m.activeRuns.Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(job, status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(job, status).Inc()
	m.runDuration.WithLabelValues(job, status).Observe(duration.Seconds())
	m.activeRuns.Dec()
}

// RecordScopeExecuted records a finished scope with its status and duration.
func (m *Metrics) RecordScopeExecuted(scopeType, status string, duration time.Duration) {
	if m.scopesExecuted == nil {
		return
	}
	m.scopesExecuted.WithLabelValues(scopeType, status).Inc()
	m.scopeDuration.WithLabelValues(scopeType).Observe(duration.Seconds())
}

// RecordScopeSkipped records a skipped scope.
func (m *Metrics) RecordScopeSkipped(scopeType string) {
	if m.scopesSkipped == nil {
		return
	}
	m.scopesSkipped.WithLabelValues(scopeType).Inc()
}

// RecordError records a run error.
func (m *Metrics) RecordError() {
	if m.errorsRecorded == nil {
		return
	}
	m.errorsRecorded.Inc()
}

// RecordTeardownWarning records a teardown warning.
func (m *Metrics) RecordTeardownWarning() {
	if m.teardownWarnings == nil {
		return
	}
	m.teardownWarnings.Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = server.ListenAndServe()
	}()

	return nil
}

// Listener returns a status listener that drives the metrics from run
// events.
func (m *Metrics) Listener() engine.StatusListener {
	return &metricsListener{
		metrics: m,
		started: map[string]time.Time{},
		now:     time.Now,
	}
}

// metricsListener observes a run and records scope and run metrics.
// Scope start times are tracked per scope ID; the outermost scope of
// the run doubles as the run itself.
type metricsListener struct {
	engine.BaseStatusListener

	metrics *Metrics
	started map[string]time.Time
	now     func() time.Time

	rootID string
}

func (l *metricsListener) StartScope(_ *engine.Context, scope engine.Scope) error {
	l.started[scope.ID()] = l.now()
	if l.rootID == "" {
		l.rootID = scope.ID()
		l.metrics.RecordRunStarted(scope.Name())
	}
	return nil
}

func (l *metricsListener) FinishScope(c *engine.Context, scope engine.Scope) error {
	status := string(c.ScopeStatus(scope))
	duration := time.Duration(0)
	if start, ok := l.started[scope.ID()]; ok {
		duration = l.now().Sub(start)
		delete(l.started, scope.ID())
	}
	l.metrics.RecordScopeExecuted(string(scope.Type()), status, duration)
	if scope.ID() == l.rootID {
		l.metrics.RecordRunCompleted(scope.Name(), status, duration)
		l.rootID = ""
	}
	return nil
}

func (l *metricsListener) SkipScope(_ *engine.Context, scope engine.Scope, _ string) error {
	l.metrics.RecordScopeSkipped(string(scope.Type()))
	return nil
}

func (l *metricsListener) Error(_ *engine.Context, _ error) error {
	l.metrics.RecordError()
	return nil
}

func (l *metricsListener) Warning(_ *engine.Context, err error) error {
	if engine.IsTeardownFailure(err) {
		l.metrics.RecordTeardownWarning()
	}
	return nil
}
