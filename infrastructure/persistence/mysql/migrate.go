package mysql

import (
	"marketplace/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every persistent
// object. Development convenience only; production schemas are managed
// by migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&po.OrderPO{},
		&po.OrderLineItemPO{},
		&po.PayoutRequestPO{},
		&po.SellerProfilePO{},
		&po.OutboxEventPO{},
	)
}
