package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// SaleRepository defines the persistence contract for sales
type SaleRepository interface {
	shared.Repository[Sale]
	FindByNumber(ctx context.Context, number string) (*Sale, error)
	// FindByIDFull loads the sale with its items and payments.
	FindByIDFull(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Sale, error)
	// SaveWithLock persists the sale guarded by its optimistic-lock version.
	SaveWithLock(ctx context.Context, sale *Sale) error
	SaveItems(ctx context.Context, items []SaleItem) error
	SavePayment(ctx context.Context, payment *Payment) error
}
