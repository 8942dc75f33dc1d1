package observability

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// NewTracerProvider creates a TracerProvider for the configured exporter
// ("otlp" or "stdout"). An empty or unknown exporter value returns
// (nil, nil): tracing disabled, caller checks for nil.
func NewTracerProvider(exporterName, serviceName string) (*sdktrace.TracerProvider, error) {
	if exporterName == "" {
		return nil, nil
	}

	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	var exp sdktrace.SpanExporter

	switch exporterName {
	case "otlp":
		// The SDK reads OTEL_EXPORTER_OTLP_ENDPOINT (and scheme/insecure) from env.
		otlpExp, err := otlptracehttp.New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("create OTLP HTTP trace exporter: %w", err)
		}
		exp = otlpExp
	case "stdout":
		stdoutExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		exp = stdoutExp
	default:
		return nil, nil
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(newSampler()),
	), nil
}

// ShutdownTracerProvider flushes and shuts down the TracerProvider. Safe to call with nil.
func ShutdownTracerProvider(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}

	return nil
}

// env names for OTEL trace sampling (standard env vars, not in config to keep config minimal).
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// defaultTraceIDRatio is used when OTEL_TRACES_SAMPLER is traceidratio or parentbased_traceidratio
// but OTEL_TRACES_SAMPLER_ARG is missing or invalid.
const defaultTraceIDRatio = 1.0

// newSampler returns a Sampler from OTEL_TRACES_SAMPLER and OTEL_TRACES_SAMPLER_ARG.
// Supported values: always_on, always_off, traceidratio, parentbased_traceidratio,
// parentbased_always_on, parentbased_always_off. Empty or unknown => parentbased_always_on.
func newSampler() sdktrace.Sampler {
	switch os.Getenv(envTracesSampler) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(parseTraceIDRatio(os.Getenv(envTracesSamplerArg)))
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseTraceIDRatio(os.Getenv(envTracesSamplerArg))))
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		// Empty or unknown: default to parentbased_always_on (same as SDK default).
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

func parseTraceIDRatio(s string) float64 {
	if s == "" {
		return defaultTraceIDRatio
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1 {
		return defaultTraceIDRatio
	}

	return f
}
