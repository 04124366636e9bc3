package persistence

import (
	"context"

	"gorm.io/gorm"

	appinventory "github.com/retail-erp/backend/internal/application/inventory"
	apppartner "github.com/retail-erp/backend/internal/application/partner"
	apptrade "github.com/retail-erp/backend/internal/application/trade"
	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// gormTransactionalRepositories builds every repository on top of one
// transaction handle, so all work inside a scope shares the transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func newGormTransactionalRepositories(tx *gorm.DB) *gormTransactionalRepositories {
	return &gormTransactionalRepositories{tx: tx}
}

func (r *gormTransactionalRepositories) SaleRepo() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockRepo() inventory.StockRepository {
	return NewGormStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) DebtRepo() partner.DebtTransactionRepository {
	return NewGormDebtTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) WarehouseRepo() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Numbers() apptrade.NumberAllocator {
	return NewGormNumberAllocator(r.tx)
}

// GormTradeTransactionScope implements apptrade.TransactionScope on a real
// database transaction.
type GormTradeTransactionScope struct {
	db *gorm.DB
}

// NewGormTradeTransactionScope creates a new trade transaction scope
func NewGormTradeTransactionScope(db *gorm.DB) *GormTradeTransactionScope {
	return &GormTradeTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. Any error rolls the whole
// transaction back.
func (s *GormTradeTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormTransactionalRepositories(tx))
	})
}

// GormInventoryTransactionScope implements appinventory.TransactionScope on a
// real database transaction.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new inventory transaction scope
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs fn inside a database transaction.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormTransactionalRepositories(tx))
	})
}

// GormPartnerTransactionScope implements apppartner.TransactionScope on a
// real database transaction.
type GormPartnerTransactionScope struct {
	db *gorm.DB
}

// NewGormPartnerTransactionScope creates a new partner transaction scope
func NewGormPartnerTransactionScope(db *gorm.DB) *GormPartnerTransactionScope {
	return &GormPartnerTransactionScope{db: db}
}

// Execute runs fn inside a database transaction.
func (s *GormPartnerTransactionScope) Execute(ctx context.Context, fn func(repos apppartner.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormTransactionalRepositories(tx))
	})
}

var _ apptrade.TransactionScope = (*GormTradeTransactionScope)(nil)
var _ appinventory.TransactionScope = (*GormInventoryTransactionScope)(nil)
var _ apppartner.TransactionScope = (*GormPartnerTransactionScope)(nil)
var _ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ apppartner.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
var _ apptrade.NumberAllocator = (*GormNumberAllocator)(nil)
