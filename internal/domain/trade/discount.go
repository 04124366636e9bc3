package trade

import (
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// moneyScale is the fixed precision for allocated money amounts.
const moneyScale = 2

// hundred is reused for percentage math.
var hundred = decimal.NewFromInt(100)

// AllocateDiscount distributes a total discount across line totals in
// proportion to each line's share of the subtotal. The effective percentage
// is rounded to two decimals first, each line's share is rounded to two
// decimals, and the last line absorbs whatever residual the rounding left so
// the allocated amounts always sum to exactly totalDiscount.
//
// Returns the per-line discounts and the effective percentage.
func AllocateDiscount(lineTotals []decimal.Decimal, totalDiscount decimal.Decimal) ([]decimal.Decimal, decimal.Decimal, error) {
	if len(lineTotals) == 0 {
		return nil, decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Cannot allocate discount over zero lines")
	}

	subtotal := decimal.Zero
	for _, lt := range lineTotals {
		if lt.LessThanOrEqual(decimal.Zero) {
			return nil, decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Line totals must be positive")
		}
		subtotal = subtotal.Add(lt)
	}

	if totalDiscount.IsNegative() {
		return nil, decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Discount cannot be negative")
	}
	if totalDiscount.GreaterThan(subtotal) {
		return nil, decimal.Zero, shared.NewDomainErrorf(shared.CodeValidation,
			"Discount %s exceeds subtotal %s", totalDiscount.StringFixed(2), subtotal.StringFixed(2))
	}

	allocations := make([]decimal.Decimal, len(lineTotals))
	if totalDiscount.IsZero() {
		for i := range allocations {
			allocations[i] = decimal.Zero
		}
		return allocations, decimal.Zero, nil
	}

	percent := totalDiscount.Div(subtotal).Mul(hundred).Round(moneyScale)

	allocated := decimal.Zero
	for i, lt := range lineTotals {
		if i == len(lineTotals)-1 {
			allocations[i] = totalDiscount.Sub(allocated)
			break
		}
		share := lt.Mul(percent).Div(hundred).Round(moneyScale)
		allocations[i] = share
		allocated = allocated.Add(share)
	}

	return allocations, percent, nil
}

// DiscountFromFinalPrice derives the total discount when the operator enters
// the final price to charge instead of a discount amount. A final price at or
// above the subtotal means no discount; the sale proceeds at the subtotal.
func DiscountFromFinalPrice(subtotal, finalPrice decimal.Decimal) (decimal.Decimal, error) {
	if finalPrice.IsNegative() {
		return decimal.Zero, shared.NewDomainError(shared.CodeValidation, "Final price cannot be negative")
	}
	if finalPrice.GreaterThanOrEqual(subtotal) {
		return decimal.Zero, nil
	}
	return subtotal.Sub(finalPrice), nil
}
