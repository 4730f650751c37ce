// Package telemetry exports round spans over OTLP/HTTP when an endpoint is
// configured.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope used for round spans.
const TracerName = "blackjack-table"

// Settings select where spans go. An empty Endpoint turns tracing off.
type Settings struct {
	Service     string
	Endpoint    string  // full OTLP/HTTP URL, e.g. http://localhost:4318
	SampleRatio float64 // share of sessions traced, 0..1
	SessionID   string
}

// Provider hands out the table tracer and flushes it on Shutdown.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup builds a provider for s. With no endpoint it returns a provider whose
// tracer records nothing.
func Setup(ctx context.Context, s Settings) (*Provider, error) {
	if s.Endpoint == "" {
		return &Provider{}, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(s.Endpoint))
	if err != nil {
		return &Provider{}, fmt.Errorf("otlp exporter: %w", err)
	}
	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(s.Service))}
	if s.SessionID != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceInstanceID(s.SessionID)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return &Provider{}, fmt.Errorf("trace resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
	)
	return &Provider{tp: tp}, nil
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p != nil && p.tp != nil }

func (p *Provider) Tracer() trace.Tracer {
	if !p.Enabled() {
		return noop.NewTracerProvider().Tracer(TracerName)
	}
	return p.tp.Tracer(TracerName)
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
