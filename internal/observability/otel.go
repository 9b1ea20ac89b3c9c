package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TracerConfig describes the process being traced. Endpoint is an OTLP gRPC
// collector such as "localhost:4317".
type TracerConfig struct {
	ServiceName string
	Endpoint    string
	Environment string
	SessionType string
	// SampleRatio applies to root spans in prod; other environments keep every trace.
	SampleRatio float64
}

func (c TracerConfig) prod() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func tracerResource(ctx context.Context, cfg TracerConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	if cfg.SessionType != "" {
		attrs = append(attrs, attribute.String("shopsphere.session_type", cfg.SessionType))
	}

	return resource.New(ctx, resource.WithAttributes(attrs...))
}

func tracerSampler(cfg TracerConfig) sdktrace.Sampler {
	if !cfg.prod() || cfg.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}

	ratio := cfg.SampleRatio
	if ratio < 0 {
		ratio = 0
	}

	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// InitTracer installs the global tracer provider and W3C propagators.
func InitTracer(ctx context.Context, cfg TracerConfig) (shutdown func(context.Context) error, err error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp grpc exporter: %w", err)
	}

	res, err := tracerResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(tracerSampler(cfg)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return tp.Shutdown, nil
}
