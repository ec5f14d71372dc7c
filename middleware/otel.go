package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/minimal-mcp/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/minimal-mcp"

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skipMethods    map[string]bool
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service name for telemetry.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelSkipMethods excludes methods from tracing and metrics.
func WithOTelSkipMethods(methods ...protocol.Method) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skipMethods[string(m)] = true
		}
	}
}

// OTel returns middleware that opens a server span per message and records
// message counts, durations and protocol error codes. The global providers
// are used unless overridden.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "minimal-mcp",
		skipMethods:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	meter := cfg.meterProvider.Meter(instrumentationName)

	messages, _ := meter.Int64Counter(
		"mcp.server.messages",
		metric.WithDescription("Inbound MCP requests and notifications"),
		metric.WithUnit("{message}"),
	)
	duration, _ := meter.Float64Histogram(
		"mcp.server.message.duration",
		metric.WithDescription("Time spent handling an MCP message"),
		metric.WithUnit("ms"),
	)
	failures, _ := meter.Int64Counter(
		"mcp.server.errors",
		metric.WithDescription("MCP messages answered with an error"),
		metric.WithUnit("{error}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skipMethods[req.Method] {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("mcp.method", req.Method),
				attribute.Bool("mcp.notification", req.IsNotification()),
				attribute.String("service.name", cfg.serviceName),
			}

			ctx, span := tracer.Start(ctx, "mcp."+req.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if reqID := RequestIDFromContext(ctx); reqID != "" {
				span.SetAttributes(attribute.String("mcp.request_id", reqID))
			}
			if !req.IsNotification() {
				span.SetAttributes(attribute.String("jsonrpc.id", string(req.ID)))
			}

			start := time.Now()
			messages.Add(ctx, 1, metric.WithAttributes(attrs...))

			resp, err := next(ctx, req)

			duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))

			var code int
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				if code = protocol.CodeOf(err); code == 0 {
					code = protocol.CodeInternalError
				}
			case resp != nil && resp.Error != nil:
				span.SetStatus(codes.Error, resp.Error.Message)
				code = resp.Error.Code
			default:
				span.SetStatus(codes.Ok, "")
				return resp, err
			}

			span.SetAttributes(attribute.Int("mcp.error_code", code))
			failures.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Int("mcp.error_code", code))...))
			return resp, err
		}
	}
}

// AddSpanEvent adds an event to the span carried by ctx, if any.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
