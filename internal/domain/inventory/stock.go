package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// quantityScale matches the precision of converted base quantities.
const quantityScale = 4

// Stock is the on-hand record for one product in one warehouse. Quantity and
// AverageCost are derived state: replaying the surviving stock movements in
// chronological order must reproduce them exactly.
type Stock struct {
	shared.BaseAggregateRoot
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_warehouse,priority:1"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_warehouse,priority:2"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Stock) TableName() string {
	return "stocks"
}

// NewStock creates an empty stock record for a product in a warehouse
func NewStock(productID, warehouseID uuid.UUID) *Stock {
	return &Stock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		AverageCost:       decimal.Zero,
	}
}

// AvailableQuantity returns on-hand quantity minus reservations
func (s *Stock) AvailableQuantity() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQuantity)
}

// CanFulfill returns true if the available quantity covers the request
func (s *Stock) CanFulfill(baseQuantity decimal.Decimal) bool {
	return s.AvailableQuantity().GreaterThanOrEqual(baseQuantity)
}

// Add increases stock by a base quantity received at the given unit cost and
// folds the cost into the moving weighted average:
//
//	newAvg = (oldQty*oldAvg + qty*cost) / (oldQty + qty)
//
// When the record holds zero or negative quantity the history no longer
// carries usable cost information, so the average resets to the incoming cost.
func (s *Stock) Add(baseQuantity, unitCost decimal.Decimal) error {
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Quantity to add must be positive")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit cost cannot be negative")
	}

	newQuantity := s.Quantity.Add(baseQuantity)
	if s.Quantity.LessThanOrEqual(decimal.Zero) || newQuantity.LessThanOrEqual(decimal.Zero) {
		s.AverageCost = unitCost
	} else {
		totalValue := s.Quantity.Mul(s.AverageCost).Add(baseQuantity.Mul(unitCost))
		s.AverageCost = totalValue.Div(newQuantity).Round(quantityScale)
	}

	s.Quantity = newQuantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Remove decreases stock by a base quantity and returns the unit cost the
// outflow is valued at, which is always the current moving average. The
// average itself does not change on outflow. Removal below the available
// quantity fails with INSUFFICIENT_STOCK unless allowNegative is set.
func (s *Stock) Remove(baseQuantity decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Quantity to remove must be positive")
	}
	if !allowNegative && !s.CanFulfill(baseQuantity) {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"Insufficient stock: requested %s, available %s",
			baseQuantity.String(), s.AvailableQuantity().String())
	}

	unitCost := s.AverageCost
	s.Quantity = s.Quantity.Sub(baseQuantity)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return unitCost, nil
}

// Reserve earmarks available quantity without moving stock
func (s *Stock) Reserve(baseQuantity decimal.Decimal) error {
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Quantity to reserve must be positive")
	}
	if !s.CanFulfill(baseQuantity) {
		return shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"Cannot reserve %s: available %s",
			baseQuantity.String(), s.AvailableQuantity().String())
	}

	s.ReservedQuantity = s.ReservedQuantity.Add(baseQuantity)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Release returns reserved quantity to the available pool. Releasing more
// than is reserved clamps to zero rather than going negative.
func (s *Stock) Release(baseQuantity decimal.Decimal) error {
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Quantity to release must be positive")
	}

	s.ReservedQuantity = s.ReservedQuantity.Sub(baseQuantity)
	if s.ReservedQuantity.IsNegative() {
		s.ReservedQuantity = decimal.Zero
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// ResetForReplay zeroes quantity and average cost so surviving movements can
// be re-applied from scratch. Reservations are left untouched: they are not
// part of the movement ledger.
func (s *Stock) ResetForReplay() {
	s.Quantity = decimal.Zero
	s.AverageCost = decimal.Zero
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
