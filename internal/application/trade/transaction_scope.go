package trade

import (
	"context"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// NumberAllocator hands out gap-free document numbers. Implementations must
// be safe under concurrent checkouts: two transactions allocating the same
// document type must never receive the same number.
type NumberAllocator interface {
	Next(ctx context.Context, documentType string) (string, error)
}

// TransactionScope provides transactional access to the repositories a
// checkout touches. Everything done inside Execute commits or rolls back as
// one unit.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the current
// transaction. All of them share one underlying database transaction.
type TransactionalRepositories interface {
	SaleRepo() trade.SaleRepository
	ProductRepo() catalog.ProductRepository
	StockRepo() inventory.StockRepository
	MovementRepo() inventory.StockMovementRepository
	CustomerRepo() partner.CustomerRepository
	DebtRepo() partner.DebtTransactionRepository
	WarehouseRepo() partner.WarehouseRepository
	Numbers() NumberAllocator
}

// NoOpTransactionScope runs the function without a real transaction. Test
// helper: the fakes behind it keep their state in memory.
type NoOpTransactionScope struct {
	Sales      trade.SaleRepository
	Products   catalog.ProductRepository
	Stocks     inventory.StockRepository
	Movements  inventory.StockMovementRepository
	Customers  partner.CustomerRepository
	Debts      partner.DebtTransactionRepository
	Warehouses partner.WarehouseRepository
	Allocator  NumberAllocator
}

// Execute runs the function directly against the configured repositories.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() trade.SaleRepository { return s.Sales }

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.Products }

// StockRepo returns the stock repository.
func (s *NoOpTransactionScope) StockRepo() inventory.StockRepository { return s.Stocks }

// MovementRepo returns the stock movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository { return s.Movements }

// CustomerRepo returns the customer repository.
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository { return s.Customers }

// DebtRepo returns the debt transaction repository.
func (s *NoOpTransactionScope) DebtRepo() partner.DebtTransactionRepository { return s.Debts }

// WarehouseRepo returns the warehouse repository.
func (s *NoOpTransactionScope) WarehouseRepo() partner.WarehouseRepository { return s.Warehouses }

// Numbers returns the document number allocator.
func (s *NoOpTransactionScope) Numbers() NumberAllocator { return s.Allocator }
