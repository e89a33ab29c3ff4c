package observability

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

func NewTestTracerProvider(config Config, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return newTracerProvider(config, sdktrace.WithSyncer(exporter))
}
