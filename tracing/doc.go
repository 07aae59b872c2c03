// Package tracing integrates OpenTelemetry with the kernel. The dispatcher
// opens a span per dispatch and every execution context runs inside a task
// span, so a trace shows when each process ran, blocked and resumed. Spans
// are no-ops until Init or InitWithExporter installs a provider.
package tracing
