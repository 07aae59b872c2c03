package rtk

import (
	"log/slog"

	"github.com/viant/rtk/runtime/kernel"
	"github.com/viant/rtk/service/event"
	"github.com/viant/rtk/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises a Service
type Option func(s *Service)

// WithConfig replaces the configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithEventService sets the event service carrying kernel transitions
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithKernelOptions passes additional options to kernel.New
func WithKernelOptions(opts ...kernel.Option) Option {
	return func(s *Service) {
		s.kernelOptions = append(s.kernelOptions, opts...)
	}
}

// WithTransitionListener registers a handler receiving every kernel transition event
func WithTransitionListener(handler func(*event.Event[kernel.Transition])) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, handler)
	}
}

// WithLogger sets the logger; it takes precedence over the log config section
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// spans are written to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.config.Tracing = TracingConfig{
			Enabled:        true,
			ServiceName:    serviceName,
			ServiceVersion: serviceVersion,
			OutputFile:     outputFile,
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. The
// first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
