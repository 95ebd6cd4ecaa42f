package po

import (
	"time"

	"marketplace/domain/order"
	"marketplace/domain/shared"
)

// OrderPO Order persistence object.
// Only used for database mapping, no business logic and no GORM
// associations. The order total is not stored: it is derived from the
// line items, so status-only writes can never corrupt it.
type OrderPO struct {
	ID              string    `gorm:"primaryKey;size:64"`
	BuyerRef        string    `gorm:"size:64;index;not null"`
	ShippingAddress string    `gorm:"size:512"`
	Status          string    `gorm:"size:24;not null"` // denormalized display label, re-derived on load
	Version         int       `gorm:"default:0"`
	PlacedAt        time.Time `gorm:"index;not null"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (OrderPO) TableName() string {
	return "orders"
}

// OrderLineItemPO Line item persistence object. seller_ref is indexed as
// the partitioning key for every seller-scoped query.
type OrderLineItemPO struct {
	ID           string     `gorm:"primaryKey;size:128"`
	OrderID      string     `gorm:"size:64;index;not null"`
	SellerRef    string     `gorm:"size:64;index;not null"`
	ProductRef   string     `gorm:"size:64"`
	ProductName  string     `gorm:"size:255"`
	Quantity     int        `gorm:"not null"`
	UnitPrice    int64      `gorm:"not null"`
	UnitCurrency string     `gorm:"size:3;not null"`
	Status       string     `gorm:"size:24;index;not null"`
	DeliveredAt  *time.Time `gorm:"index"`
}

func (OrderLineItemPO) TableName() string {
	return "order_line_items"
}

// FromOrderDomain Convert domain model to persistence objects.
func FromOrderDomain(o *order.Order) (*OrderPO, []OrderLineItemPO) {
	orderPO := &OrderPO{
		ID:              o.ID(),
		BuyerRef:        o.BuyerRef(),
		ShippingAddress: o.ShippingAddress(),
		Status:          string(o.Status()),
		Version:         o.Version(),
		PlacedAt:        o.PlacedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}

	items := o.Items()
	itemPOs := make([]OrderLineItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = OrderLineItemPO{
			ID:           item.ID(),
			OrderID:      o.ID(),
			SellerRef:    item.SellerRef(),
			ProductRef:   item.ProductRef(),
			ProductName:  item.ProductName(),
			Quantity:     item.Quantity(),
			UnitPrice:    item.UnitPrice().Amount(),
			UnitCurrency: item.UnitPrice().Currency(),
			Status:       string(item.Status()),
			DeliveredAt:  item.DeliveredAt(),
		}
	}

	return orderPO, itemPOs
}

// ToDomain Convert persistence objects to the domain model.
func (po *OrderPO) ToDomain(itemPOs []OrderLineItemPO) *order.Order {
	items := make([]order.LineItem, len(itemPOs))
	for i, itemPO := range itemPOs {
		items[i] = order.RebuildItemFromDTO(order.ItemReconstructionDTO{
			ID:          itemPO.ID,
			SellerRef:   itemPO.SellerRef,
			ProductRef:  itemPO.ProductRef,
			ProductName: itemPO.ProductName,
			Quantity:    itemPO.Quantity,
			UnitPrice:   *shared.NewMoney(itemPO.UnitPrice, itemPO.UnitCurrency),
			Status:      order.ItemStatus(itemPO.Status),
			DeliveredAt: itemPO.DeliveredAt,
		})
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:              po.ID,
		BuyerRef:        po.BuyerRef,
		ShippingAddress: po.ShippingAddress,
		Items:           items,
		Version:         po.Version,
		PlacedAt:        po.PlacedAt,
		UpdatedAt:       po.UpdatedAt,
	})
}
