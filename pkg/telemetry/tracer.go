package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jobforge/jobforge/pkg/engine"
)

// Tracer wraps the OpenTelemetry tracer with jobforge-specific
// functionality.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	config   TracingConfig
}

// TracerOption adjusts tracer construction.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	exportWriter io.Writer
}

// WithExportWriter redirects the stdout exporter, primarily for tests.
func WithExportWriter(w io.Writer) TracerOption {
	return func(o *tracerOptions) { o.exportWriter = w }
}

// NewTracer creates a new tracer with the given configuration.
func NewTracer(cfg TracingConfig, serviceName, serviceVersion, environment string, opts ...TracerOption) (*Tracer, error) {
	var options tracerOptions
	for _, opt := range opts {
		opt(&options)
	}

	if !cfg.Enabled {
		return &Tracer{
			provider: sdktrace.NewTracerProvider(),
			tracer:   otel.Tracer(serviceName),
			config:   cfg,
		}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			attribute.String("environment", environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "stdout":
		exporter, err = createStdoutExporter(options.exportWriter)
	case "none":
		// Spans are generated but not exported
		exporter = nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	sampler := sdktrace.ParentBased(
		sdktrace.TraceIDRatioBased(cfg.SamplingRate),
	)

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(
			exporter,
			sdktrace.WithMaxExportBatchSize(cfg.MaxExportBatchSize),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		))
	}

	provider := sdktrace.NewTracerProvider(providerOpts...)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		config:   cfg,
	}, nil
}

// createStdoutExporter creates a stdout exporter for debugging.
func createStdoutExporter(w io.Writer) (sdktrace.SpanExporter, error) {
	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if w != nil {
		opts = append(opts, stdouttrace.WithWriter(w))
	}
	return stdouttrace.New(opts...)
}

// Start begins a new span with the given name.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, opts...)
}

// StartRunSpan starts a span for a job run.
func (t *Tracer) StartRunSpan(ctx context.Context, job string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "run.execute", trace.WithAttributes(
		AttrJob.String(job),
	))
}

// Shutdown gracefully shuts down the tracer, flushing any pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// ForceFlush forces all pending spans to be exported immediately.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Listener returns a status listener that opens a span per scope. Spans
// nest with the scope stack; a skipped scope becomes an event on the
// enclosing span.
func (t *Tracer) Listener(ctx context.Context) engine.StatusListener {
	return &traceListener{tracer: t, base: ctx}
}

type spanFrame struct {
	ctx  context.Context
	span trace.Span
	id   string
}

// traceListener mirrors the scope stack as a span stack.
type traceListener struct {
	engine.BaseStatusListener

	tracer *Tracer
	base   context.Context
	stack  []spanFrame
}

func (l *traceListener) current() context.Context {
	if len(l.stack) == 0 {
		return l.base
	}
	return l.stack[len(l.stack)-1].ctx
}

func (l *traceListener) StartScope(_ *engine.Context, scope engine.Scope) error {
	ctx, span := l.tracer.Start(l.current(), engine.ScopeLabel(scope), trace.WithAttributes(
		AttrScopeType.String(string(scope.Type())),
		AttrScopeName.String(scope.Name()),
	))
	l.stack = append(l.stack, spanFrame{ctx: ctx, span: span, id: scope.ID()})
	return nil
}

func (l *traceListener) FinishScope(c *engine.Context, scope engine.Scope) error {
	if len(l.stack) == 0 || l.stack[len(l.stack)-1].id != scope.ID() {
		return nil
	}
	frame := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]

	status := c.ScopeStatus(scope)
	frame.span.SetAttributes(AttrScopeStatus.String(string(status)))
	if status == engine.StatusFailed {
		frame.span.SetStatus(codes.Error, string(status))
	} else {
		frame.span.SetStatus(codes.Ok, "")
	}
	frame.span.End()
	return nil
}

func (l *traceListener) SkipScope(_ *engine.Context, scope engine.Scope, reason string) error {
	trace.SpanFromContext(l.current()).AddEvent("scope.skipped", trace.WithAttributes(
		AttrScopeName.String(scope.Name()),
		attribute.String("reason", reason),
	))
	return nil
}

func (l *traceListener) Error(_ *engine.Context, err error) error {
	RecordError(trace.SpanFromContext(l.current()), err)
	return nil
}

// Common attribute keys for jobforge tracing.
var (
	AttrJob         = attribute.Key("job")
	AttrRunID       = attribute.Key("run.id")
	AttrScopeType   = attribute.Key("scope.type")
	AttrScopeName   = attribute.Key("scope.name")
	AttrScopeStatus = attribute.Key("scope.status")
)
