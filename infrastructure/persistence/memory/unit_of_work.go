package memory

import (
	"context"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/retry"
)

// UnitOfWork is the in-memory unit of work. There is no transaction to
// manage; it still retries conflicted closures and delivers collected
// events straight to the publisher, replacing the SQL outbox.
type UnitOfWork struct {
	aggregates  []shared.AggregateRoot
	publisher   shared.DomainEventPublisher
	retryConfig retry.Config
}

func NewUnitOfWork(publisher shared.DomainEventPublisher) *UnitOfWork {
	return &UnitOfWork{
		aggregates:  make([]shared.AggregateRoot, 0),
		publisher:   publisher,
		retryConfig: retry.DefaultConfig,
	}
}

func (u *UnitOfWork) SetRetryConfig(config retry.Config) {
	u.retryConfig = config
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	executeOnce := func(ctx context.Context) error {
		u.aggregates = make([]shared.AggregateRoot, 0)

		if err := fn(ctx); err != nil {
			return err
		}

		if u.publisher != nil {
			for _, agg := range u.aggregates {
				for _, event := range agg.PullEvents() {
					// Event delivery is best-effort here; the write
					// already succeeded.
					_ = u.publisher.Publish(event)
				}
			}
		}
		return nil
	}

	return retry.ExecuteWithRetry(ctx, u.retryConfig, executeOnce)
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWorkFactory builds a fresh in-memory UnitOfWork per request.
type UnitOfWorkFactory struct {
	publisher   shared.DomainEventPublisher
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(publisher shared.DomainEventPublisher, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		publisher:   publisher,
		retryConfig: retryConfig,
	}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	uow := NewUnitOfWork(f.publisher)
	uow.SetRetryConfig(f.retryConfig)
	return uow
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
