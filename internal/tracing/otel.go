package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// OTelConfig configures the optional OpenTelemetry export path, grounded
// on the teacher's observability.TraceConfig (internal/observability/tracing.go).
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string // OTLP gRPC endpoint; empty disables export
	Insecure       bool
	SamplingRatio  float64 // 0 < r <= 1; defaults to 1
}

// NewOTelProvider builds an OTel TracerProvider exporting via OTLP gRPC,
// following the same exporter/resource/sampler wiring as the teacher's
// observability.NewTracer. The returned shutdown func must be called
// when the process exits.
func NewOTelProvider(ctx context.Context, cfg OTelConfig) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return nil, func(context.Context) error { return nil }, nil
	}

	var opts []otlptracegrpc.Option
	opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	client := otlptracegrpc.NewClient(opts...)
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: create otlp exporter: %w", err)
	}

	ratio := cfg.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	return provider, provider.Shutdown, nil
}

// OTelProcessor mirrors each core Span onto a real OpenTelemetry span via
// a oteltrace.Tracer, so spans opened through Context.WithSpan /
// WithRootSpan are visible to any OTel-compatible backend without the
// core itself depending on OTel for its own nesting logic.
type OTelProcessor struct {
	tracer oteltrace.Tracer

	mu    sync.Mutex
	spans map[string]spanHandle
}

type spanHandle struct {
	span oteltrace.Span
	ctx  context.Context
}

// NewOTelProcessor wraps a oteltrace.Tracer (obtained from a provider, or
// otel.Tracer("name") for the global no-op provider when OTelConfig.Endpoint
// is empty) as a SpanProcessor.
func NewOTelProcessor(tracer oteltrace.Tracer) *OTelProcessor {
	return &OTelProcessor{tracer: tracer, spans: make(map[string]spanHandle)}
}

// NewDefaultOTelProcessor uses the global tracer provider registered via
// otel.SetTracerProvider, or a no-op tracer if none was set.
func NewDefaultOTelProcessor(instrumentationName string) *OTelProcessor {
	return NewOTelProcessor(otel.Tracer(instrumentationName))
}

func (p *OTelProcessor) OnTraceStart(*Trace) {}
func (p *OTelProcessor) OnTraceEnd(*Trace)   {}

func (p *OTelProcessor) OnSpanStart(span *Span) {
	p.mu.Lock()
	parent := context.Background()
	if span.ParentID != "" {
		if h, ok := p.spans[span.ParentID]; ok {
			parent = h.ctx
		}
	}
	p.mu.Unlock()

	ctx, otelSpan := p.tracer.Start(parent, span.Name,
		oteltrace.WithTimestamp(span.StartedAt),
		oteltrace.WithAttributes(attributesToOTel(span.Attributes)...),
	)

	p.mu.Lock()
	p.spans[span.ID] = spanHandle{span: otelSpan, ctx: ctx}
	p.mu.Unlock()
}

func (p *OTelProcessor) OnSpanEnd(span *Span) {
	p.mu.Lock()
	h, ok := p.spans[span.ID]
	delete(p.spans, span.ID)
	p.mu.Unlock()
	if !ok {
		return
	}
	if span.Err != nil {
		h.span.RecordError(span.Err)
		h.span.SetStatus(codes.Error, span.Err.Error())
	}
	h.span.End(oteltrace.WithTimestamp(endTimeOrNow(span)))
}

func endTimeOrNow(span *Span) time.Time {
	if span.EndedAt.IsZero() {
		return time.Now()
	}
	return span.EndedAt
}

func attributesToOTel(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attributeFromValue(k, v))
	}
	return kvs
}

// attributeFromValue type-switches a Go value into an OTel attribute,
// grounded on the teacher's observability.attributeFromValue.
func attributeFromValue(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
