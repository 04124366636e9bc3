package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// ProductRepository defines the persistence contract for products
type ProductRepository interface {
	shared.Repository[Product]
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	// FindByIDWithUnits loads the product together with its UOM conversion rows.
	FindByIDWithUnits(ctx context.Context, id uuid.UUID) (*Product, error)
	// SaveWithLock persists the product guarded by its optimistic-lock version.
	SaveWithLock(ctx context.Context, product *Product) error
}

// ProductUnitRepository defines the persistence contract for UOM conversion rows
type ProductUnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductUnit, error)
	FindByProductID(ctx context.Context, productID uuid.UUID) ([]ProductUnit, error)
	FindByProductAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*ProductUnit, error)
	Save(ctx context.Context, unit *ProductUnit) error
	Delete(ctx context.Context, id uuid.UUID) error
}
