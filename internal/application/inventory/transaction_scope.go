package inventory

import (
	"context"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
)

// TransactionScope provides transactional access to the repositories stock
// operations touch. Everything done inside Execute commits or rolls back as
// one unit.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories scoped to the current
// transaction.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	StockRepo() inventory.StockRepository
	MovementRepo() inventory.StockMovementRepository
	WarehouseRepo() partner.WarehouseRepository
}

// NoOpTransactionScope runs the function without a real transaction. Test
// helper: the fakes behind it keep their state in memory.
type NoOpTransactionScope struct {
	Products   catalog.ProductRepository
	Stocks     inventory.StockRepository
	Movements  inventory.StockMovementRepository
	Warehouses partner.WarehouseRepository
}

// Execute runs the function directly against the configured repositories.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.Products }

// StockRepo returns the stock repository.
func (s *NoOpTransactionScope) StockRepo() inventory.StockRepository { return s.Stocks }

// MovementRepo returns the stock movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository { return s.Movements }

// WarehouseRepo returns the warehouse repository.
func (s *NoOpTransactionScope) WarehouseRepo() partner.WarehouseRepository { return s.Warehouses }
