package tracing

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/myndigheter/pkg/tracing/exporters"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider owns the SDK tracer provider installed by Setup.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a global tracer provider and the package tracer. When
// enabled is false spans are recorded but dropped by a no-op exporter, so
// trace ids still flow through request logs and error responses.
func Setup(ctx context.Context, serviceName string, enabled bool, cfg exporters.OTLPConfig) (*Provider, error) {
	var exporter sdktrace.SpanExporter = &exporters.NoopExporter{}
	if enabled {
		otlp, err := exporters.NewOTLPExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		exporter = otlp
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(tp.Tracer(serviceName))

	return &Provider{tp: tp}, nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
