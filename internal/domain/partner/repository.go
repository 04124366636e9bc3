package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// CustomerRepository defines the persistence contract for customers
type CustomerRepository interface {
	shared.Repository[Customer]
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	// FindForUpdate loads the customer under a row lock so concurrent debt
	// mutations serialize inside the enclosing transaction.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	// SaveWithLock persists the customer guarded by its optimistic-lock version.
	SaveWithLock(ctx context.Context, customer *Customer) error
}

// DebtTransactionRepository defines the persistence contract for the debt ledger
type DebtTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DebtTransaction, error)
	// FindByCustomer returns the customer's ledger in chronological order.
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]DebtTransaction, error)
	FindBySource(ctx context.Context, source DebtSource) ([]DebtTransaction, error)
	Save(ctx context.Context, tx *DebtTransaction) error
}

// WarehouseRepository defines the persistence contract for warehouses
type WarehouseRepository interface {
	shared.Repository[Warehouse]
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
}
