package otel

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContextJSON serializes the propagation fields of ctx so they can be
// stored next to an outbox row and restored by the relay.
func TraceContextJSON(ctx context.Context) []byte {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	b, err := json.Marshal(carrier)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// ContextFromTraceJSON is the inverse of TraceContextJSON. Empty or
// malformed input leaves parent untouched.
func ContextFromTraceJSON(parent context.Context, data []byte) context.Context {
	if len(data) == 0 {
		return parent
	}
	carrier := propagation.MapCarrier{}
	if err := json.Unmarshal(data, &carrier); err != nil {
		return parent
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
