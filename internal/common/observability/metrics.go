package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"crew-portal/internal/common/logger"
)

// Observability owns the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	pageCounter    otelmetric.Int64Counter
	pageDuration   otelmetric.Float64Histogram
	reviewCounter  otelmetric.Int64Counter
}

// Options configures New.
type Options struct {
	ServiceName    string
	TracingEnabled bool
	JaegerEndpoint string
}

// New builds the meter provider (exported through the Prometheus registry)
// and, when enabled, a Jaeger-backed tracer provider. Failures degrade to a
// no-op Observability so the portal still starts.
func New(opts Options, log logger.Logger) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
	} else {
		o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(o.meterProvider)
		o.meter = o.meterProvider.Meter(opts.ServiceName)

		o.pageCounter, _ = o.meter.Int64Counter(
			"portal.pages.rendered",
			otelmetric.WithDescription("Number of portal pages rendered"),
		)
		o.pageDuration, _ = o.meter.Float64Histogram(
			"portal.pages.duration",
			otelmetric.WithDescription("Page render duration including backend calls"),
			otelmetric.WithUnit("ms"),
		)
		o.reviewCounter, _ = o.meter.Int64Counter(
			"portal.reviews.decided",
			otelmetric.WithDescription("Number of approval decisions submitted by admins"),
		)
	}

	if opts.TracingEnabled {
		tp, err := newTracerProvider(opts.ServiceName, opts.JaegerEndpoint)
		if err != nil {
			log.Warn("failed to create tracer provider", map[string]interface{}{"error": err})
		} else {
			o.tracerProvider = tp
			otel.SetTracerProvider(tp)
		}
	}

	return o
}

// RecordPage counts a rendered page on a surface (crew|admin).
func (o *Observability) RecordPage(ctx context.Context, surface, page string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("surface", surface),
		attribute.String("page", page),
	)
	if o.pageCounter != nil {
		o.pageCounter.Add(ctx, 1, attrs)
	}
	if o.pageDuration != nil {
		o.pageDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordReview counts an approve/reject decision per resource.
func (o *Observability) RecordReview(ctx context.Context, resource, decision string) {
	if o == nil || o.reviewCounter == nil {
		return
	}
	o.reviewCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("decision", decision),
	))
}

// Shutdown flushes both providers.
func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
