package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a catalog entity. The sale engine reads it and never mutates it,
// with one exception: CostPrice is overwritten by the inventory ledger after a
// purchase (latest-purchase costing for catalog display, distinct from the
// moving average kept on Stock).
type Product struct {
	shared.BaseAggregateRoot
	Code               string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name               string          `gorm:"type:varchar(200);not null"`
	BaseUnit           string          `gorm:"type:varchar(20);not null"`
	CostPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VIPPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AllowNegativeStock bool            `gorm:"not null;default:false"`
	Barcode            string          `gorm:"type:varchar(64);index"`
	Status             ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`

	// Alternate units - loaded lazily
	Units []ProductUnit `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with required fields
func NewProduct(code, name, baseUnit string) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot exceed 200 characters")
	}
	if baseUnit == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Base unit cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		BaseUnit:          baseUnit,
		CostPrice:         decimal.Zero,
		SalePrice:         decimal.Zero,
		VIPPrice:          decimal.Zero,
		Status:            ProductStatusActive,
		Units:             make([]ProductUnit, 0),
	}, nil
}

// SetPrices sets the catalog price triple
func (p *Product) SetPrices(costPrice, salePrice, vipPrice decimal.Decimal) error {
	if costPrice.IsNegative() || salePrice.IsNegative() || vipPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Prices cannot be negative")
	}

	p.CostPrice = costPrice
	p.SalePrice = salePrice
	p.VIPPrice = vipPrice
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdateCostPrice overwrites the cached cost price. Called by the inventory
// ledger on purchase income; last writer wins, which is acceptable for this
// read-mostly field.
func (p *Product) UpdateCostPrice(unitCost decimal.Decimal) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit cost cannot be negative")
	}

	p.CostPrice = unitCost
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetAllowNegativeStock toggles whether sales may drive stock below zero
func (p *Product) SetAllowNegativeStock(allow bool) {
	p.AllowNegativeStock = allow
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Archive archives the product
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewDomainError(shared.CodeInvalidState, "Product is already archived")
	}
	p.Status = ProductStatusArchived
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasVIPPrice returns true if a VIP price is configured
func (p *Product) HasVIPPrice() bool {
	return p.VIPPrice.GreaterThan(decimal.Zero)
}

// UnitByCode returns the configured alternate unit with the given code, or nil
func (p *Product) UnitByCode(unitCode string) *ProductUnit {
	for idx := range p.Units {
		if p.Units[idx].UnitCode == unitCode {
			return &p.Units[idx]
		}
	}
	return nil
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError(shared.CodeValidation, "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError(shared.CodeValidation, "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError(shared.CodeValidation, "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}
