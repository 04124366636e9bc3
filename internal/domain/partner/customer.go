package partner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// Customer carries the credit ledger head: CurrentDebt and AdvanceBalance are
// derived state, and replaying the customer's debt transactions in order must
// reproduce CurrentDebt exactly.
type Customer struct {
	shared.BaseAggregateRoot
	Name           string          `gorm:"type:varchar(200);not null"`
	Phone          string          `gorm:"type:varchar(30);index"`
	IsVIP          bool            `gorm:"not null;default:false"`
	CreditLimit    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CurrentDebt    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AdvanceBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	PurchaseCount  int             `gorm:"not null;default:0"`
	PurchaseTotal  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastPurchaseAt *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer
func NewCustomer(name, phone string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer name cannot exceed 200 characters")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Phone:             phone,
		CreditLimit:       decimal.Zero,
		CurrentDebt:       decimal.Zero,
		AdvanceBalance:    decimal.Zero,
		PurchaseTotal:     decimal.Zero,
	}, nil
}

// SetVIP toggles VIP pricing for the customer
func (c *Customer) SetVIP(vip bool) {
	c.IsVIP = vip
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// SetCreditLimit sets the maximum debt the customer may carry
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// AvailableCredit returns how much new debt the customer may take on.
// Advance balance extends the headroom; the result never goes negative.
func (c *Customer) AvailableCredit() decimal.Decimal {
	available := c.CreditLimit.Sub(c.CurrentDebt).Add(c.AdvanceBalance)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// AddDebt increases the customer's debt, failing with CREDIT_LIMIT_EXCEEDED
// when the amount does not fit in the available credit. A zero credit limit
// means the customer is not limited at all.
func (c *Customer) AddDebt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Debt amount must be positive")
	}
	if c.CreditLimit.IsPositive() && amount.GreaterThan(c.AvailableCredit()) {
		return shared.NewDomainErrorf(shared.CodeCreditLimitExceeded,
			"Debt of %s exceeds available credit %s",
			amount.StringFixed(2), c.AvailableCredit().StringFixed(2))
	}

	c.CurrentDebt = c.CurrentDebt.Add(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// PayDebt settles debt with the given amount. Anything beyond the current
// debt becomes advance balance rather than driving the debt negative.
func (c *Customer) PayDebt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}

	if amount.GreaterThan(c.CurrentDebt) {
		excess := amount.Sub(c.CurrentDebt)
		c.CurrentDebt = decimal.Zero
		c.AdvanceBalance = c.AdvanceBalance.Add(excess)
	} else {
		c.CurrentDebt = c.CurrentDebt.Sub(amount)
	}

	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// UseAdvance spends advance balance, e.g. as payment at checkout. The
// balance can never go negative.
func (c *Customer) UseAdvance(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Advance amount must be positive")
	}
	if amount.GreaterThan(c.AdvanceBalance) {
		return shared.NewDomainErrorf(shared.CodeValidation,
			"Advance payment %s exceeds advance balance %s",
			amount.StringFixed(2), c.AdvanceBalance.StringFixed(2))
	}

	c.AdvanceBalance = c.AdvanceBalance.Sub(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// ReverseDebt backs out debt recorded in error, e.g. when the sale that
// created it is cancelled. Unlike PayDebt no money changes hands, so any
// amount beyond the current debt is simply clamped.
func (c *Customer) ReverseDebt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Reversal amount must be positive")
	}

	c.CurrentDebt = c.CurrentDebt.Sub(amount)
	if c.CurrentDebt.IsNegative() {
		c.CurrentDebt = decimal.Zero
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// RecordPurchase updates the customer's lifetime purchase statistics
func (c *Customer) RecordPurchase(total decimal.Decimal, at time.Time) {
	c.PurchaseCount++
	c.PurchaseTotal = c.PurchaseTotal.Add(total)
	c.LastPurchaseAt = &at
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
