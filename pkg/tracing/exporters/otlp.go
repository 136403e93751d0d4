package exporters

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Supported OTLP protocols
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

const defaultExportTimeout = 10 * time.Second

// OTLPConfig selects the collector that receives dataset spans
type OTLPConfig struct {
	Endpoint string
	Protocol string
	Insecure bool
	Timeout  time.Duration
}

func (c OTLPConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultExportTimeout
	}
	return c.Timeout
}

// NewOTLPExporter connects to the collector over the configured protocol
func NewOTLPExporter(ctx context.Context, cfg OTLPConfig) (*otlptrace.Exporter, error) {
	switch cfg.Protocol {
	case ProtocolGRPC:
		return otlptracegrpc.New(ctx, grpcOptions(cfg)...)
	case ProtocolHTTP:
		return otlptracehttp.New(ctx, httpOptions(cfg)...)
	}
	return nil, fmt.Errorf("unknown OTLP protocol %q, expected %q or %q", cfg.Protocol, ProtocolGRPC, ProtocolHTTP)
}

func grpcOptions(cfg OTLPConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(cfg.timeout()),
	}
	if !cfg.Insecure {
		return opts
	}
	return append(opts,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
}

func httpOptions(cfg OTLPConfig) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithTimeout(cfg.timeout()),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}
