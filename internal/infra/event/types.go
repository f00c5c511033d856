package event

import "context"

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]interface{}) error

// Headers written by the outbox relay on every published event.
const (
	HeaderEventID      = "x-event-id"
	HeaderEventVersion = "x-event-version"
	HeaderAggregateID  = "x-aggregate-id"
	HeaderEventType    = "x-event-type"
)
