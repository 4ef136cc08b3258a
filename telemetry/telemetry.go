// Package telemetry configures logging and OpenTelemetry export for
// programs built on the transition package.
//
// Logs go to a local slog handler unless an OTLP logs endpoint is set, in
// which case they are bridged to OpenTelemetry. Traces are exported over
// OTLP/HTTP when enabled, and the transition executor picks them up through
// the global tracer provider.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// In-cluster collector used when running in Kubernetes without an explicit
// endpoint.
const kubernetesCollectorEndpoint = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"

// Config holds the telemetry configuration.
type Config struct {
	ServiceName    string        `env:"OTEL_SERVICE_NAME"                  envDefault:"transition"`
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION"               envDefault:"1.0.0"`
	Environment    string        `env:"ENVIRONMENT"                        envDefault:"local"`
	Enabled        bool          `env:"OTEL_ENABLED"                       envDefault:"false"`
	TracesEndpoint string        `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	LogsEndpoint   string        `env:"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"`
	Timeout        time.Duration `env:"OTEL_EXPORTER_OTLP_TIMEOUT"         envDefault:"5s"`
	LogJSON        bool          `env:"LOG_JSON"                           envDefault:"false"`
	LogLevel       slog.Level    `env:"LOG_LEVEL"                          envDefault:"INFO"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse telemetry config: %w", err)
	}

	if cfg.TracesEndpoint == "" && os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		cfg.TracesEndpoint = kubernetesCollectorEndpoint
	}

	return cfg, nil
}

// Telemetry owns the providers created by Initialize.
type Telemetry struct {
	logger         *slog.Logger
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
}

// Initialize sets up logging to output and, when enabled, OTLP export of
// traces and logs. A configured tracer provider is installed globally.
func Initialize(ctx context.Context, cfg Config, output io.Writer) (*Telemetry, error) {
	if output == nil {
		output = os.Stderr
	}

	local := slog.New(localHandler(cfg, output))
	tel := &Telemetry{logger: local}

	if !cfg.Enabled {
		return tel, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.TracesEndpoint != "" {
		if err := tel.startTracing(ctx, cfg, res); err != nil {
			return nil, err
		}
	} else {
		local.WarnContext(ctx, "OpenTelemetry traces endpoint not configured, tracing will be disabled")
	}

	if cfg.LogsEndpoint != "" {
		if err := tel.startLogging(ctx, cfg, res); err != nil {
			return nil, errors.Join(err, tel.Shutdown(ctx))
		}
	}

	local.InfoContext(ctx, "OpenTelemetry initialized",
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"environment", cfg.Environment,
		"traces_endpoint", cfg.TracesEndpoint,
		"logs_endpoint", cfg.LogsEndpoint,
	)

	return tel, nil
}

func (t *Telemetry) startTracing(ctx context.Context, cfg Config, res *resource.Resource) error {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.TracesEndpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(t.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

func (t *Telemetry) startLogging(ctx context.Context, cfg Config, res *resource.Resource) error {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(cfg.LogsEndpoint),
		otlploghttp.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	t.loggerProvider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	t.logger = otelslog.NewLogger(cfg.ServiceName, otelslog.WithLoggerProvider(t.loggerProvider))

	return nil
}

// Logger returns the logger to hand to transition.NewSlogLogger.
func (t *Telemetry) Logger() *slog.Logger {
	return t.logger
}

// TracingEnabled reports whether spans are being exported.
func (t *Telemetry) TracingEnabled() bool {
	return t.tracerProvider != nil
}

// LogExportEnabled reports whether logs are being exported.
func (t *Telemetry) LogExportEnabled() bool {
	return t.loggerProvider != nil
}

// Shutdown flushes and stops every provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}

	if t.loggerProvider != nil {
		errs = append(errs, t.loggerProvider.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

func localHandler(cfg Config, output io.Writer) slog.Handler { //nolint:ireturn
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	if cfg.LogJSON {
		return slog.NewJSONHandler(output, opts)
	}

	return slog.NewTextHandler(output, opts)
}
