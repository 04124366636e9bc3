package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// conversionScale is the fixed precision for converted base quantities.
// Conversions are rounded here once so drift cannot accumulate across
// many movements.
const conversionScale = 4

// ProductUnit is one row of the UOM conversion table: how many base units
// equal one of this unit (e.g. 1 tonna = 1000 kg → Factor 1000). The
// product's own base unit is implicit with factor 1 and has no row.
type ProductUnit struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_unit_code,priority:1"`
	UnitCode     string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_product_unit_code,priority:2"`
	UnitName     string          `gorm:"type:varchar(50);not null"`
	Factor       decimal.Decimal `gorm:"type:decimal(18,6);not null"` // base units per 1 of this unit
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"not null;autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ProductUnit) TableName() string {
	return "product_units"
}

// NewProductUnit registers a unit directly against the base unit
func NewProductUnit(productID uuid.UUID, unitCode, unitName string, factor decimal.Decimal) (*ProductUnit, error) {
	if err := validateUnitCode(unitCode); err != nil {
		return nil, err
	}
	if err := validateUnitName(unitName); err != nil {
		return nil, err
	}
	if err := validateFactor(factor); err != nil {
		return nil, err
	}

	return &ProductUnit{
		ID:           uuid.New(),
		ProductID:    productID,
		UnitCode:     unitCode,
		UnitName:     unitName,
		Factor:       factor,
		SellingPrice: decimal.Zero,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// NewProductUnitFromExisting registers a unit expressed relative to an already
// configured unit of the same product: ratio is how many of the new unit make
// up one existing unit, so the base factor composes as existing.Factor / ratio.
func NewProductUnitFromExisting(existing *ProductUnit, unitCode, unitName string, ratio decimal.Decimal) (*ProductUnit, error) {
	if existing == nil {
		return nil, shared.NewDomainError(shared.CodeUnitNotConfigured, "Existing unit is required to derive a new unit")
	}
	if err := validateFactor(ratio); err != nil {
		return nil, err
	}

	factor := existing.Factor.Div(ratio)
	return NewProductUnit(existing.ProductID, unitCode, unitName, factor)
}

// Update updates the unit's name and factor
func (pu *ProductUnit) Update(unitName string, factor decimal.Decimal) error {
	if err := validateUnitName(unitName); err != nil {
		return err
	}
	if err := validateFactor(factor); err != nil {
		return err
	}

	pu.UnitName = unitName
	pu.Factor = factor
	pu.UpdatedAt = time.Now()

	return nil
}

// SetSellingPrice sets the UOM-specific selling price (0 disables it)
func (pu *ProductUnit) SetSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Selling price cannot be negative")
	}

	pu.SellingPrice = price
	pu.UpdatedAt = time.Now()

	return nil
}

// HasSellingPrice returns true if a UOM-specific selling price is configured
func (pu *ProductUnit) HasSellingPrice() bool {
	return pu.SellingPrice.GreaterThan(decimal.Zero)
}

// ConvertToBase converts a quantity in this unit to base units.
// Formula: baseQuantity = quantity * factor, rounded to 4 fractional digits.
func (pu *ProductUnit) ConvertToBase(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Mul(pu.Factor).Round(conversionScale)
}

// ConvertFromBase converts a base-unit quantity to this unit
func (pu *ProductUnit) ConvertFromBase(baseQuantity decimal.Decimal) decimal.Decimal {
	if pu.Factor.IsZero() {
		return decimal.Zero
	}
	return baseQuantity.Div(pu.Factor).Round(conversionScale)
}

// ConvertToBaseUnit resolves the base quantity for a quantity entered in the
// given unit. The base unit itself converts with factor 1; any other unit must
// have a configured conversion row or the call fails with UNIT_NOT_CONFIGURED.
func ConvertToBaseUnit(product *Product, quantity decimal.Decimal, unitCode string) (decimal.Decimal, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if unitCode == "" || unitCode == product.BaseUnit {
		return quantity.Round(conversionScale), nil
	}

	unit := product.UnitByCode(unitCode)
	if unit == nil {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeUnitNotConfigured,
			"Unit %q is not configured for product %s", unitCode, product.Code)
	}
	return unit.ConvertToBase(quantity), nil
}

func validateUnitCode(code string) error {
	if code == "" {
		return shared.NewDomainError(shared.CodeValidation, "Unit code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError(shared.CodeValidation, "Unit code cannot exceed 20 characters")
	}
	return nil
}

func validateUnitName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeValidation, "Unit name cannot be empty")
	}
	if len(name) > 50 {
		return shared.NewDomainError(shared.CodeValidation, "Unit name cannot exceed 50 characters")
	}
	return nil
}

func validateFactor(factor decimal.Decimal) error {
	if factor.IsZero() {
		return shared.NewDomainError(shared.CodeValidation, "Conversion factor cannot be zero")
	}
	if factor.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Conversion factor cannot be negative")
	}
	return nil
}
