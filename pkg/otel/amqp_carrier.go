package otel

import (
	"context"
	"sort"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// AMQPHeadersCarrier exposes a delivery's header table to otel propagators.
// Brokers and non-Go clients may hand back long strings as []byte, so both
// are read.
type AMQPHeadersCarrier amqp.Table

func (c AMQPHeadersCarrier) Get(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func (c AMQPHeadersCarrier) Set(key, value string) {
	c[key] = value
}

// Keys are sorted so propagators see a stable order.
func (c AMQPHeadersCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InjectAMQP writes the trace context of ctx into headers, allocating the
// table when it is nil.
func InjectAMQP(ctx context.Context, headers amqp.Table) amqp.Table {
	if headers == nil {
		headers = amqp.Table{}
	}
	otel.GetTextMapPropagator().Inject(ctx, AMQPHeadersCarrier(headers))
	return headers
}

// ExtractAMQP returns ctx enriched with the trace context found in headers.
func ExtractAMQP(ctx context.Context, headers amqp.Table) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, AMQPHeadersCarrier(headers))
}
