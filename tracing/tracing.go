package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span kinds accepted by StartSpan
const (
	KindInternal = "INTERNAL"
	KindProducer = "PRODUCER"
	KindConsumer = "CONSUMER"
)

const instrumentationName = "github.com/viant/rtk"

// Init configures OpenTelemetry with the stdout exporter backed by either
// os.Stdout or the specified file. The first successful initialisation wins
// until Shutdown.
func Init(serviceName, serviceVersion, outputFile string) error {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		w = f
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return err
	}
	return installProvider(serviceName, serviceVersion, exporter)
}

// InitWithExporter configures OpenTelemetry using the supplied SpanExporter.
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	return installProvider(serviceName, serviceVersion, exporter)
}

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

func installProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerMu.Lock()
	defer providerMu.Unlock()
	if provider != nil {
		return nil
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and stops the installed provider, if any. A later Init
// installs a fresh provider.
func Shutdown(ctx context.Context) error {
	providerMu.Lock()
	current := provider
	provider = nil
	if current != nil {
		otel.SetTracerProvider(noop.NewTracerProvider())
	}
	providerMu.Unlock()
	if current == nil {
		return nil
	}
	return current.Shutdown(ctx)
}

// Span wraps an OpenTelemetry span
type Span struct {
	span trace.Span
}

// WithAttributes attaches all provided attributes to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.SetAttributes(otelAttrs...)
	return s
}

// AddEvent records a named point in time on the span (e.g. "blocked").
func (s *Span) AddEvent(name string, attrs map[string]string) {
	if s == nil {
		return
	}
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		otelAttrs = append(otelAttrs, attribute.String(k, v))
	}
	s.span.AddEvent(name, trace.WithAttributes(otelAttrs...))
}

// SetStatus records an error status on the span, or OK when err is nil.
func (s *Span) SetStatus(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
}

// StartSpan starts a new child span; unknown kinds map to SpanKindInternal.
func StartSpan(ctx context.Context, name, kind string) (context.Context, *Span) {
	tracer := otel.Tracer(instrumentationName)

	var spanKind trace.SpanKind
	switch kind {
	case KindProducer:
		spanKind = trace.SpanKindProducer
	case KindConsumer:
		spanKind = trace.SpanKindConsumer
	default:
		spanKind = trace.SpanKindInternal
	}

	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(spanKind))
	return ctx, &Span{span: span}
}

// EndSpan finalises the span and records status depending on the provided error.
func EndSpan(sp *Span, err error) {
	if sp == nil {
		return
	}
	sp.SetStatus(err)
	sp.span.End()
}

// SpanFromContext retrieves the current span from the supplied context.
func SpanFromContext(ctx context.Context) (*Span, bool) {
	sp := trace.SpanFromContext(ctx)
	if !sp.SpanContext().IsValid() {
		return nil, false
	}
	return &Span{span: sp}, true
}
