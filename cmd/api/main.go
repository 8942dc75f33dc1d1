package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/limeboard/limeboard/internal/api/handlers"
	"github.com/limeboard/limeboard/internal/api/middleware"
	"github.com/limeboard/limeboard/internal/config"
	"github.com/limeboard/limeboard/internal/observability"
	"github.com/limeboard/limeboard/internal/service"
	"github.com/limeboard/limeboard/internal/survey"
	"github.com/limeboard/limeboard/pkg/limesurvey"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	observability.SetupLogging(cfg.LogLevel)

	// Tracing is optional; nil provider means disabled.
	tracerProvider, err := observability.NewTracerProvider(cfg.OtelTracesExporter, "")
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics are optional as well.
	var (
		meterProvider  observability.MeterProviderShutdown
		metricsHandler http.Handler
		appMetrics     observability.AppMetrics
		cacheMetrics   observability.CacheMetrics
	)
	if cfg.MetricsEnabled {
		meterProvider, metricsHandler, appMetrics, cacheMetrics, err = observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
		if err != nil {
			slog.Error("Failed to initialize metrics", "error", err)
			os.Exit(1)
		}
	}

	// Wire the RemoteControl client through the reconciliation core to the
	// HTTP surface.
	client := limesurvey.NewClientWithOptions(limesurvey.ClientOptions{
		URL:               cfg.LimeSurveyURL,
		RetryMax:          cfg.RPCRetryMax,
		Timeout:           cfg.RPCTimeout,
		RequestsPerSecond: cfg.RPCRequestsPerSecond,
	})

	assembler := survey.NewAssembler(client, survey.Options{
		APIURL:           cfg.LimeSurveyURL,
		Username:         cfg.LimeSurveyUser,
		Password:         cfg.LimeSurveyPassword,
		ExtraAttributes:  cfg.ExtraAttributes,
		TitleFormat:      cfg.TitleFormat,
		TitleFormatsByID: cfg.TitleFormatsByID,
	})

	surveysService := service.NewSurveysService(assembler, cfg, cacheMetrics)
	surveysHandler := handlers.NewSurveysHandler(surveysService)
	healthHandler := handlers.NewHealthHandler()

	// Set up public endpoints (no authentication required)
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)
	if metricsHandler != nil {
		publicMux.Handle("GET /metrics", metricsHandler)
	}

	// Set up protected endpoints (authentication required)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /v1/surveys", surveysHandler.List)
	protectedMux.HandleFunc("DELETE /v1/surveys/cache", surveysHandler.ClearCache)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)

	// Combine both handlers
	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, /metrics)

	// Middleware order, outermost first: Metrics measures full request time,
	// RequestID tags the context before Logging writes its line.
	var handler http.Handler = mainMux
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Metrics(appMetrics)(handler)

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{},
		))
		handler = otelhttp.NewHandler(handler, "http.server")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if meterProvider != nil {
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Meter provider shutdown", "error", err)
		}
	}

	if err := observability.ShutdownTracerProvider(shutdownCtx, tracerProvider); err != nil {
		slog.Error("Tracer provider shutdown", "error", err)
	}

	slog.Info("Server exited")
}
