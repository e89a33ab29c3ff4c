// Package observability exports run traces to Langfuse over OTLP and
// carries the run and turn a span belongs to through the context.
package observability

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const serviceName = "agentescape"

// Config describes where traces go and which run setup produced them.
type Config struct {
	Environment  string
	Enabled      bool
	LangfuseHost string
	PublicKey    string
	SecretKey    string

	// Provider, Model and Scenario label every span of the process.
	Provider string
	Model    string
	Scenario string
}

type TracerProvider struct {
	provider *sdktrace.TracerProvider
	enabled  bool
}

// InitTracing installs a global tracer provider exporting to Langfuse. With
// tracing disabled it returns a provider that does nothing.
func InitTracing(ctx context.Context, config Config) (*TracerProvider, error) {
	if !config.Enabled {
		return &TracerProvider{enabled: false}, nil
	}

	exporter, err := createLangfuseExporter(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Langfuse exporter: %w", err)
	}

	tp := newTracerProvider(config, sdktrace.WithBatcher(exporter,
		sdktrace.WithBatchTimeout(5*time.Second),
		sdktrace.WithMaxExportBatchSize(100),
	))
	otel.SetTracerProvider(tp)

	return &TracerProvider{provider: tp, enabled: true}, nil
}

func newTracerProvider(config Config, export sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(runResource(config)),
		sdktrace.WithSpanProcessor(runInjector{}),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
}

func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if !tp.enabled || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

func (tp *TracerProvider) IsEnabled() bool {
	return tp.enabled
}

func createLangfuseExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	auth := base64.StdEncoding.EncodeToString([]byte(config.PublicKey + ":" + config.SecretKey))
	endpoint := strings.TrimSuffix(config.LangfuseHost, "/") + "/api/public/otel/v1/traces"

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
		otlptracehttp.WithHeaders(map[string]string{"Authorization": "Basic " + auth}),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		otlptracehttp.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exporter, nil
}

func runResource(config Config) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		attribute.String("deployment.environment", config.Environment),
	}
	if config.Provider != "" {
		attrs = append(attrs, attribute.String("gen_ai.system", config.Provider))
	}
	if config.Model != "" {
		attrs = append(attrs, attribute.String("gen_ai.request.model", config.Model))
	}
	if config.Scenario != "" {
		attrs = append(attrs, attribute.String("game.scenario", config.Scenario))
	}
	return resource.NewWithAttributes("", attrs...)
}

func LoadConfigFromEnv() Config {
	return LoadConfig(os.Getenv)
}

// LoadConfig reads tracing settings through getenv. Tracing stays off
// unless OTEL_TRACES_ENABLED=true and both Langfuse keys are present.
func LoadConfig(getenv func(string) string) Config {
	cfg := Config{Environment: getenv("ENVIRONMENT")}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if getenv("OTEL_TRACES_ENABLED") != "true" {
		return cfg
	}

	cfg.LangfuseHost = getenv("LANGFUSE_HOST")
	if cfg.LangfuseHost == "" {
		cfg.LangfuseHost = "https://cloud.langfuse.com"
	}
	cfg.PublicKey = getenv("LANGFUSE_PUBLIC_KEY")
	cfg.SecretKey = getenv("LANGFUSE_SECRET_KEY")
	cfg.Enabled = cfg.PublicKey != "" && cfg.SecretKey != ""
	return cfg
}

// RunAttributes name the root span of a run so Langfuse groups its turns
// into one trace.
func RunAttributes(runID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("langfuse.trace.name", serviceName+"-run"),
		attribute.StringSlice("langfuse.trace.tags", []string{serviceName}),
		attribute.String("game.run_id", runID),
	}
}

// GenerationAttributes describe one model call as a Langfuse generation.
func GenerationAttributes(system, model string, maxTokens, toolCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("gen_ai.operation.name", "chat"),
		attribute.String("gen_ai.system", system),
		attribute.String("gen_ai.request.model", model),
		attribute.Int("gen_ai.request.max_tokens", maxTokens),
		attribute.Int("gen_ai.request.tool_count", toolCount),
		attribute.String("langfuse.observation.type", "generation"),
	}
}

type contextKey int

const (
	runIDKey contextKey = iota
	turnKey
)

// WithRun marks ctx as belonging to run runID.
func WithRun(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithTurn marks ctx as belonging to turn number of the current run.
func WithTurn(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, turnKey, number)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Turn returns the turn number on ctx, or 0 outside a turn.
func Turn(ctx context.Context) int {
	n, _ := ctx.Value(turnKey).(int)
	return n
}

// RunSpanAttributes are the attributes every span started under ctx gets.
func RunSpanAttributes(ctx context.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := RunID(ctx); id != "" {
		attrs = append(attrs,
			attribute.String("langfuse.session.id", id),
			attribute.String("session.id", id),
			attribute.String("game.run_id", id),
		)
	}
	if n := Turn(ctx); n > 0 {
		attrs = append(attrs, attribute.Int("game.turn", n))
	}
	return attrs
}

// runInjector stamps the run and turn from the start context onto every
// span, so call sites only have to carry the context.
type runInjector struct{}

func (runInjector) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {
	if attrs := RunSpanAttributes(ctx); len(attrs) > 0 {
		s.SetAttributes(attrs...)
	}
}

func (runInjector) OnEnd(sdktrace.ReadOnlySpan)      {}
func (runInjector) Shutdown(context.Context) error   { return nil }
func (runInjector) ForceFlush(context.Context) error { return nil }
