package mysql

import (
	"context"
	"fmt"

	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// OutboxRepository MySQL/GORM implementation of the transactional
// outbox: events land here atomically with the aggregate change and are
// drained by the OutboxWorker.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// SaveEvent stores a domain event in the outbox table, inside the
// context transaction when one is present.
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}

	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveEventWithTx(tx, event)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveEventWithTx(tx, event)
	})
}

func (r *OutboxRepository) saveEventWithTx(tx *gorm.DB, event shared.DomainEvent) error {
	outboxPO, err := po.FromDomainEvent(event)
	if err != nil {
		return fmt.Errorf("failed to convert domain event: %w", err)
	}

	if err := tx.Create(outboxPO).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents retrieves events awaiting publication, oldest first.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	var events []*po.OutboxEventPO
	err := r.getDB(ctx).
		Where("status = ?", string(po.EventStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

// MarkEventProcessing claims an event so concurrent workers do not
// publish it twice.
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).Model(&po.OutboxEventPO{}).
		Where("id = ? AND status = ?", eventID, string(po.EventStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusProcessing),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

// MarkEventPublished marks an event as successfully published.
func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusPublished),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// MarkEventFailed increments the retry count; the event goes back to
// pending until maxRetries is exhausted.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) error {
	db := r.getDB(ctx)

	var event po.OutboxEventPO
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	newRetryCount := event.RetryCount + 1
	newStatus := string(po.EventStatusFailed)
	if newRetryCount < maxRetries {
		newStatus = string(po.EventStatusPending)
	}

	result := db.Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":      newStatus,
			"retry_count": newRetryCount,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return result.Error
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)
