package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var allowedSpanKeys = map[attribute.Key]struct{}{
	"http.method":             {},
	"http.route":              {},
	"http.status_code":        {},
	"http.server_duration_ms": {},
	"request_id":              {},
	"org_id":                  {},
	"invoice_id":              {},
	"source_type":             {},
}

// SafeAttributes drops span attributes that could carry guardian or payment data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	safe := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedSpanKeys[attr.Key]; !ok {
			continue
		}
		safe = append(safe, attr)
	}
	return safe
}

// SafeError returns an error whose message is safe to record on a span.
// Wrapped errors keep internal detail out of telemetry; only the
// outermost message survives.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return errors.New("internal error")
	}
	return err
}

// ExtractContext restores the propagated trace context from the carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
