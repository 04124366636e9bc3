package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// StockRepository defines the persistence contract for stock records
type StockRepository interface {
	shared.Repository[Stock]
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*Stock, error)
	// FindForUpdate loads the stock row under a row lock so concurrent
	// mutations serialize inside the enclosing transaction.
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*Stock, error)
	// GetOrCreate returns the stock record, creating an empty one if the
	// product has never moved in this warehouse.
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*Stock, error)
	// SaveWithLock persists the record guarded by its optimistic-lock version.
	SaveWithLock(ctx context.Context, stock *Stock) error
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]Stock, error)
}

// StockMovementRepository defines the persistence contract for the movement ledger
type StockMovementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)
	// FindSurvivingByProductAndWarehouse returns non-deleted movements in
	// chronological order, the input for ledger replay.
	FindSurvivingByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) ([]StockMovement, error)
	FindByReference(ctx context.Context, ref DocumentRef) ([]StockMovement, error)
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	Save(ctx context.Context, movement *StockMovement) error
}
