package outbound

import (
	"context"
)

type OutboxRepository interface {
	SaveOutboxEvent(ctx context.Context, eventID, aggID, eventType string, eventVersion int32, payload []byte, topic string) error
}

// RepositoryProvider exposes the repositories that take part in a transaction.
type RepositoryProvider interface {
	Drivers() DriverRepository
	Outbox() OutboxRepository
}

// UnitOfWork runs fn inside a transaction; fn receives repositories bound to it.
// Any error from fn rolls the whole transaction back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(provider RepositoryProvider) error) error
}
