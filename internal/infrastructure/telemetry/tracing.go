package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for gateway operation spans
const TracerName = "order-source-gateway"

// Span attribute keys
const (
	SpanAttrOperation   = "order_source.operation"
	SpanAttrScopeID     = "order_source.scope_id"
	SpanAttrItemCount   = "order_source.item_count"
	SpanAttrFailedCount = "order_source.failed_count"
)

// StartOperationSpan starts a span named "order_source.<operation>".
// The caller must end the span.
//
//	ctx, span := telemetry.StartOperationSpan(ctx, "inventory_push")
//	defer span.End()
func StartOperationSpan(ctx context.Context, operation string, keyValues ...any) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{attribute.String(SpanAttrOperation, operation)}, toAttributes(keyValues)...)
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, "order_source."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// SetAttributes adds key/value pairs to the span. Non-string keys and a
// trailing key without value are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttributes(keyValues)...)
}

// RecordError records the error on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
