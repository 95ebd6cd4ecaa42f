package mysql

import (
	"marketplace/domain/shared"
	"marketplace/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWorkFactory builds a fresh UnitOfWork per request so concurrent
// requests never share registration state.
type UnitOfWorkFactory struct {
	db          *gorm.DB
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(db *gorm.DB, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:          db,
		retryConfig: retryConfig,
	}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	uow := NewUnitOfWork(f.db)
	uow.SetRetryConfig(f.retryConfig)
	return uow
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
