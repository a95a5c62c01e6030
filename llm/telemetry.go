package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kbukum/chatstream/llm"

// Span and attribute names.
const (
	SpanExchange = "llm.exchange"

	AttrDialect    = "llm.dialect"
	AttrModel      = "llm.model"
	AttrExchangeID = "llm.exchange_id"
	AttrFragments  = "llm.fragments"
	AttrOutcome    = "llm.outcome"
	AttrStatusCode = "http.status_code"
)

type telemetry struct {
	tracer    trace.Tracer
	exchanges metric.Int64Counter
	fragments metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName)
	exchanges, err := meter.Int64Counter("llm.exchanges",
		metric.WithDescription("Chat exchanges by outcome"))
	if err != nil {
		exchanges, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("llm.exchanges")
	}
	fragments, err := meter.Int64Counter("llm.fragments",
		metric.WithDescription("Assistant fragments received"))
	if err != nil {
		fragments, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("llm.fragments")
	}

	return &telemetry{
		tracer:    tp.Tracer(instrumentationName),
		exchanges: exchanges,
		fragments: fragments,
	}
}

func (t *telemetry) start(ctx context.Context, id string, cfg ProviderConfig, dialect string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanExchange, trace.WithAttributes(
		attribute.String(AttrExchangeID, id),
		attribute.String(AttrDialect, dialect),
		attribute.String(AttrModel, cfg.Model),
	))
}

func (t *telemetry) fragment(ctx context.Context, dialect string) {
	t.fragments.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrDialect, dialect)))
}

func (t *telemetry) finish(ctx context.Context, span trace.Span, dialect string, res Result, err error) {
	outcome := StateCompleted.String()
	if err != nil {
		outcome = StateFailed.String()
	}

	span.SetAttributes(
		attribute.Int(AttrFragments, res.Fragments),
		attribute.String(AttrOutcome, outcome),
	)
	if err != nil {
		if code := StatusCode(err); code > 0 {
			span.SetAttributes(attribute.Int(AttrStatusCode, code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	t.exchanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDialect, dialect),
		attribute.String(AttrOutcome, outcome),
	))
}
