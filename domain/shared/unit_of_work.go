package shared

import "context"

// UnitOfWork manages a transaction boundary and collects domain events
// from the aggregates registered inside it (transactional outbox).
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

// UnitOfWorkFactory builds a fresh UnitOfWork per request so concurrent
// requests never share aggregate registration state.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

// OutboxRepository persists domain events inside the surrounding
// transaction for asynchronous publishing.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}
