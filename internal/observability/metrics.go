// Package observability provides structured logging, OpenTelemetry metrics
// (Prometheus exporter), and optional tracing wiring.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	meterScope         = "github.com/limeboard/limeboard/internal/observability"
	defaultServiceName = "limeboard"
	cardinalityLimit   = 2000
)

// latencyHistogramBoundaries are Prometheus-style buckets (seconds) for the
// request duration histogram. Survey list misses hit the remote API several
// times, so the upper buckets are generous.
var latencyHistogramBoundaries = []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30}

// AppMetrics is the metrics interface for the HTTP surface.
type AppMetrics interface {
	RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration)
}

// MeterProviderShutdown is the subset of the SDK MeterProvider needed for shutdown.
type MeterProviderShutdown interface {
	Shutdown(ctx context.Context) error
}

// MeterProviderConfig holds configuration for creating the MeterProvider and metrics.
type MeterProviderConfig struct {
	// ServiceName is used in the resource (default: limeboard).
	ServiceName string
}

// NewMeterProvider creates a MeterProvider with a Prometheus exporter and
// returns the provider, an HTTP handler for /metrics, the request metrics,
// and the cache metrics. Caller must call provider.Shutdown on exit. When
// metrics are disabled, pass nil for metrics at call sites.
func NewMeterProvider(_ context.Context, cfg MeterProviderConfig) (provider MeterProviderShutdown, metricsHandler http.Handler, metrics AppMetrics, cacheMetrics CacheMetrics, err error) {
	serviceNameVal := cfg.ServiceName
	if serviceNameVal == "" {
		serviceNameVal = defaultServiceName
	}

	// Use a single resource to avoid Schema URL conflicts when merging with resource.Default().
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceNameVal),
	)

	reg := prometheus.NewRegistry()

	exporter, err := prometheusexporter.New(
		prometheusexporter.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
		sdkmetric.WithCardinalityLimit(cardinalityLimit),
		sdkmetric.WithView(
			sdkmetric.NewView(
				sdkmetric.Instrument{Name: "http.server.duration"},
				sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: latencyHistogramBoundaries}},
			),
		),
	)
	provider = mp
	meter := mp.Meter(meterScope)

	metrics, err = newMetricsFromMeter(meter)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create metrics instruments: %w", err)
	}

	cacheMetrics, err = NewCacheMetrics(meter)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create cache metrics: %w", err)
	}

	metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return provider, metricsHandler, metrics, cacheMetrics, nil
}

func newMetricsFromMeter(meter metric.Meter) (*appMetricsImpl, error) {
	requestCount, err := meter.Int64Counter(
		"http.server.request_count",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("request_count: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("http.server.duration: %w", err)
	}

	return &appMetricsImpl{
		requestCount:    requestCount,
		requestDuration: requestDuration,
	}, nil
}

type appMetricsImpl struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func (m *appMetricsImpl) RecordRequest(ctx context.Context, method, route, statusClass string, duration time.Duration) {
	attrs := attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status_class", statusClass),
	)
	m.requestCount.Add(ctx, 1, metric.WithAttributeSet(attrs))

	durAttrs := attribute.NewSet(
		attribute.String("method", method),
		attribute.String("route", route),
	)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributeSet(durAttrs))
}
