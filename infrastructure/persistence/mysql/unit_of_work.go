package mysql

import (
	"context"
	"fmt"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork implements the Unit of Work pattern with GORM. It manages
// the transaction boundary and collects domain events from registered
// aggregates into the outbox table before commit.
type UnitOfWork struct {
	db               *gorm.DB
	aggregates       []shared.AggregateRoot
	outboxRepository *OutboxRepository
	retryConfig      retry.Config
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:               db,
		aggregates:       make([]shared.AggregateRoot, 0),
		outboxRepository: NewOutboxRepository(db),
		retryConfig:      retry.DefaultConfig,
	}
}

// SetRetryConfig updates the retry configuration for this UnitOfWork.
func (u *UnitOfWork) SetRetryConfig(config retry.Config) {
	u.retryConfig = config
}

// Execute runs fn inside a database transaction with the transaction
// injected into the context, saves events from registered aggregates to
// the outbox, and commits. Retryable failures (lost optimistic lock
// races, deadlocks) re-run the whole closure up to the configured
// budget, so fn must re-read its aggregates on every attempt.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	executeOnce := func(ctx context.Context) error {
		u.aggregates = make([]shared.AggregateRoot, 0)

		tx := u.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("failed to begin transaction: %w", tx.Error)
		}

		txCtx := persistence.ContextWithTx(ctx, tx)

		if err := fn(txCtx); err != nil {
			tx.Rollback()
			return err
		}

		for _, agg := range u.aggregates {
			for _, event := range agg.PullEvents() {
				if err := u.outboxRepository.SaveEvent(txCtx, event); err != nil {
					tx.Rollback()
					return fmt.Errorf("failed to save event to outbox: %w", err)
				}
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		return nil
	}

	return retry.ExecuteWithRetry(ctx, u.retryConfig, executeOnce)
}

// RegisterNew registers a newly created aggregate root for event collection.
func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterDirty registers a modified aggregate root for event collection.
func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterRemoved registers a deleted aggregate root for event collection.
func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)
