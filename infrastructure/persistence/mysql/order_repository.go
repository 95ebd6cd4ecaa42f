package mysql

import (
	"context"
	"errors"

	"marketplace/domain/order"
	"marketplace/infrastructure/persistence"
	"marketplace/infrastructure/persistence/mysql/po"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository MySQL/GORM implementation of the order repository.
// GORM associations are not used; the aggregate boundary is managed by
// hand so a save never touches rows outside the aggregate.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// getDB returns the transaction from context if available, otherwise the
// default db.
func (r *OrderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

func (r *OrderRepository) NextIdentity() string {
	return "order-" + uuid.New().String()
}

// Save persists the aggregate. Updates are conditional on the stored
// version; a row count of zero means either the order vanished or
// another transaction won the race, and the two are distinguished so the
// caller can tell a retryable conflict from a real absence.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveWithTx(tx, o)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveWithTx(tx, o)
	})
}

func (r *OrderRepository) saveWithTx(tx *gorm.DB, o *order.Order) error {
	orderPO, itemPOs := po.FromOrderDomain(o)

	if o.IsNew() {
		if err := tx.Create(orderPO).Error; err != nil {
			return err
		}
		if len(itemPOs) > 0 {
			if err := tx.Create(&itemPOs).Error; err != nil {
				return err
			}
		}
		o.ClearNewFlag()
		return nil
	}

	expectedVersion := o.Version()
	result := tx.Model(&po.OrderPO{}).
		Where("id = ? AND version = ?", o.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":     orderPO.Status,
			"version":    expectedVersion + 1,
			"updated_at": orderPO.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&po.OrderPO{}).Where("id = ?", o.ID()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return order.NewOrderNotFoundError(o.ID())
		}
		return order.NewConcurrentModificationError(o.ID())
	}

	// Line items are replaced wholesale; the version guard above already
	// serialized this write against concurrent savers.
	if err := tx.Where("order_id = ?", o.ID()).Delete(&po.OrderLineItemPO{}).Error; err != nil {
		return err
	}
	if len(itemPOs) > 0 {
		if err := tx.Create(&itemPOs).Error; err != nil {
			return err
		}
	}

	o.IncrementVersionForSave()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	db := r.getDB(ctx)

	var orderPO po.OrderPO
	result := db.First(&orderPO, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, order.NewOrderNotFoundError(id)
		}
		return nil, result.Error
	}

	// Items are queried by hand, not preloaded, to keep the aggregate
	// boundary explicit.
	var itemPOs []po.OrderLineItemPO
	if err := db.Where("order_id = ?", id).Find(&itemPOs).Error; err != nil {
		return nil, err
	}

	return orderPO.ToDomain(itemPOs), nil
}

// FindBySeller returns orders containing the seller's items, newest
// first. The filter translates to a subquery on the line item table so
// the seller partition index does the work.
func (r *OrderRepository) FindBySeller(ctx context.Context, sellerRef string, filter order.ListFilter) ([]*order.Order, error) {
	db := r.getDB(ctx)

	itemQuery := db.Session(&gorm.Session{NewDB: true}).
		Model(&po.OrderLineItemPO{}).
		Select("order_id").
		Where("seller_ref = ?", sellerRef)
	if filter.Status != "" {
		itemQuery = itemQuery.Where("status = ?", string(filter.Status))
	}

	query := db.Where("id IN (?)", itemQuery)
	if !filter.From.IsZero() {
		query = query.Where("placed_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("placed_at < ?", filter.To)
	}

	var orderPOs []po.OrderPO
	if err := query.Order("placed_at DESC").Find(&orderPOs).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, len(orderPOs))
	for i, orderPO := range orderPOs {
		var itemPOs []po.OrderLineItemPO
		if err := db.Where("order_id = ?", orderPO.ID).Find(&itemPOs).Error; err != nil {
			return nil, err
		}
		orders[i] = orderPO.ToDomain(itemPOs)
	}

	return orders, nil
}

var _ order.Repository = (*OrderRepository)(nil)
