// Package telemetry owns the OpenTelemetry providers of one process and the
// instruments recorded by the analysis pipeline and the chat engine.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	dialTimeout     = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Providers holds the tracer and meter providers. Both are nil when
// telemetry is disabled, in which case the otel no-op globals stay in place.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// NewResource describes this service to the collector.
func NewResource(ctx context.Context, app config.AppCfg) (*resource.Resource, error) {
	return resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(app.Name),
		semconv.ServiceVersion(app.Version),
		semconv.DeploymentEnvironment(app.Env),
	))
}

// NewProviders exports traces and metrics over OTLP/gRPC and installs both
// providers as the otel globals, which the gin, http, gorm and redis
// instrumentation read. The pipeline instruments are created on the result.
func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.OtlpEndpoint == "" {
		return p, initPipelineMetrics(otel.GetMeterProvider())
	}

	res, err := NewResource(ctx, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	endpoint := grpcEndpoint(cfg.Telemetry.OtlpEndpoint)

	if p.Tracer, err = newTracerProvider(ctx, endpoint, cfg.Telemetry.SampleRatio, res); err != nil {
		return nil, err
	}
	if p.Meter, err = newMeterProvider(ctx, endpoint, res); err != nil {
		_ = p.Tracer.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(p.Tracer)
	otel.SetMeterProvider(p.Meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, initPipelineMetrics(p.Meter)
}

// TracerProvider returns the owned provider, or the global one when tracing
// is disabled.
func (p *Providers) TracerProvider() trace.TracerProvider {
	if p == nil || p.Tracer == nil {
		return otel.GetTracerProvider()
	}
	return p.Tracer
}

// Shutdown flushes pending spans and metrics. The container calls it on
// shutdown.
func (p *Providers) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// grpcEndpoint strips the scheme, the OTLP gRPC exporters want host:port.
func grpcEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimPrefix(endpoint, "https://")
}
