package partner

import (
	"time"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// Warehouse is a physical stock location. AllowNegativeStock lets an entire
// location sell below zero; the same flag on a product overrides per product.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code               string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name               string `gorm:"type:varchar(200);not null"`
	AllowNegativeStock bool   `gorm:"not null;default:false"`
	IsActive           bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	if code == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse name cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		IsActive:          true,
	}, nil
}

// SetAllowNegativeStock toggles negative stock for the whole location
func (w *Warehouse) SetAllowNegativeStock(allow bool) {
	w.AllowNegativeStock = allow
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// Deactivate takes the warehouse out of service
func (w *Warehouse) Deactivate() error {
	if !w.IsActive {
		return shared.NewDomainError(shared.CodeInvalidState, "Warehouse is already inactive")
	}
	w.IsActive = false
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}
