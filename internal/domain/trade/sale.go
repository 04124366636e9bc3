package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusPartial   SaleStatus = "partial"
	SaleStatusPaid      SaleStatus = "paid"
	SaleStatusDebt      SaleStatus = "debt"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodAdvance  PaymentMethod = "advance"
)

// IsValid reports whether the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodAdvance:
		return true
	}
	return false
}

// Sale is the checkout document. Totals obey the invariant
// Total = Subtotal - DiscountTotal + DeliveryCost and the item discounts sum
// to exactly DiscountTotal. Status only moves forward: once out of draft a sale never
// returns, and a cancelled sale stays cancelled.
type Sale struct {
	shared.BaseAggregateRoot
	Number      string     `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID  *uuid.UUID `gorm:"type:uuid;index"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status      SaleStatus `gorm:"type:varchar(20);not null;default:'draft'"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0"`
	DeliveryCost    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaidTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DebtTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	SaleDate  time.Time `gorm:"not null;index"`
	CreatedBy string    `gorm:"type:varchar(100);not null"`

	CancelledAt  *time.Time
	CancelledBy  string `gorm:"type:varchar(100)"`
	CancelReason string `gorm:"type:varchar(500)"`

	Items    []SaleItem `gorm:"foreignKey:SaleID;references:ID"`
	Payments []Payment  `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a sale. Quantity is what the operator entered in
// UnitCode; BaseQuantity is the converted amount the inventory ledger moved,
// kept on the line so cancellation can restock exactly what left.
type SaleItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductName string    `gorm:"type:varchar(200);not null"`

	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCode     string          `gorm:"type:varchar(20);not null"`
	Factor       decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1"`
	BaseQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	// OriginalPrice is the resolved catalog price before discount; UnitCost
	// snapshots the moving average cost at sale time for margin reporting.
	OriginalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// LineTotal returns the pre-discount total for the line
func (i *SaleItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.OriginalPrice).Round(2)
}

// Payment is one payment received against a sale
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAt    time.Time       `gorm:"not null"`
	CreatedBy string          `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewSale creates a sale in draft status
func NewSale(number string, customerID *uuid.UUID, warehouseID uuid.UUID, createdBy string, saleDate time.Time) (*Sale, error) {
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale number cannot be empty")
	}
	if createdBy == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale actor cannot be empty")
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		WarehouseID:       warehouseID,
		Status:            SaleStatusDraft,
		Subtotal:          decimal.Zero,
		DiscountTotal:     decimal.Zero,
		DiscountPercent:   decimal.Zero,
		DeliveryCost:      decimal.Zero,
		Total:             decimal.Zero,
		PaidTotal:         decimal.Zero,
		DebtTotal:         decimal.Zero,
		SaleDate:          saleDate,
		CreatedBy:         createdBy,
		Items:             make([]SaleItem, 0),
		Payments:          make([]Payment, 0),
	}, nil
}

// AddItem appends a line to a draft sale
func (s *Sale) AddItem(item SaleItem) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "Items can only be added to a draft sale")
	}
	if item.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Item quantity must be positive")
	}
	if item.OriginalPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Item price cannot be negative")
	}

	item.SaleID = s.ID
	s.Items = append(s.Items, item)
	return nil
}

// SetDeliveryCost sets the delivery charge added on top of the discounted
// goods total. Must be set while the sale is still a draft.
func (s *Sale) SetDeliveryCost(cost decimal.Decimal) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "Delivery cost can only be set on a draft sale")
	}
	if cost.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Delivery cost cannot be negative")
	}
	s.DeliveryCost = cost
	return nil
}

// ApplyDiscount allocates a total discount across the sale's lines and fixes
// the sale totals. Must be called on a draft with at least one item.
func (s *Sale) ApplyDiscount(totalDiscount decimal.Decimal) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "Discount can only be applied to a draft sale")
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Sale has no items")
	}

	lineTotals := make([]decimal.Decimal, len(s.Items))
	subtotal := decimal.Zero
	for i := range s.Items {
		lineTotals[i] = s.Items[i].LineTotal()
		subtotal = subtotal.Add(lineTotals[i])
	}

	allocations, percent, err := AllocateDiscount(lineTotals, totalDiscount)
	if err != nil {
		return err
	}

	for i := range s.Items {
		s.Items[i].DiscountAmount = allocations[i]
		s.Items[i].TotalPrice = lineTotals[i].Sub(allocations[i])
		if s.Items[i].Quantity.IsPositive() {
			s.Items[i].UnitPrice = s.Items[i].TotalPrice.Div(s.Items[i].Quantity).Round(4)
		}
	}

	s.Subtotal = subtotal
	s.DiscountTotal = totalDiscount
	s.DiscountPercent = percent
	s.Total = subtotal.Sub(totalDiscount).Add(s.DeliveryCost)
	s.UpdatedAt = time.Now()

	return nil
}

// Confirm moves the sale out of draft. The concrete post-draft status is
// derived afterwards from payments and debt.
func (s *Sale) Confirm() error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "Only a draft sale can be confirmed")
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Sale has no items")
	}

	s.Status = SaleStatusPending
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// AddPayment records a payment and re-derives the settlement status
func (s *Sale) AddPayment(method PaymentMethod, amount decimal.Decimal, paidAt time.Time, createdBy string) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeAlreadyCancelled, "Sale is cancelled")
	}
	if s.Status == SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, "Confirm the sale before taking payments")
	}
	if !method.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidation, "Unknown payment method %q", method)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	outstanding := s.Total.Sub(s.PaidTotal)
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainErrorf(shared.CodeValidation,
			"Payment %s exceeds outstanding %s", amount.StringFixed(2), outstanding.StringFixed(2))
	}

	s.Payments = append(s.Payments, Payment{
		ID:        uuid.New(),
		SaleID:    s.ID,
		Method:    method,
		Amount:    amount,
		PaidAt:    paidAt,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	})
	s.PaidTotal = s.PaidTotal.Add(amount)
	s.deriveStatus()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// RecordDebt books the unpaid remainder as customer debt
func (s *Sale) RecordDebt(amount decimal.Decimal) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeAlreadyCancelled, "Sale is cancelled")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeValidation, "Debt amount must be positive")
	}
	outstanding := s.Total.Sub(s.PaidTotal).Sub(s.DebtTotal)
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainErrorf(shared.CodeValidation,
			"Debt %s exceeds outstanding %s", amount.StringFixed(2), outstanding.StringFixed(2))
	}

	s.DebtTotal = s.DebtTotal.Add(amount)
	s.deriveStatus()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Cancel terminates the sale. Cancelling twice fails with ALREADY_CANCELLED;
// actor and reason are required so the audit trail stays attributable.
func (s *Sale) Cancel(actor, reason string, at time.Time) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainErrorf(shared.CodeAlreadyCancelled, "Sale %s is already cancelled", s.Number)
	}
	if actor == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel actor is required")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}

	s.Status = SaleStatusCancelled
	s.CancelledAt = &at
	s.CancelledBy = actor
	s.CancelReason = reason
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsCancelled reports whether the sale has been cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// Outstanding returns the amount not yet covered by payments or booked debt
func (s *Sale) Outstanding() decimal.Decimal {
	return s.Total.Sub(s.PaidTotal).Sub(s.DebtTotal)
}

// deriveStatus maps the settlement amounts onto the post-draft statuses.
// Fully paid wins over everything; booked debt wins over partial.
func (s *Sale) deriveStatus() {
	switch {
	case s.PaidTotal.GreaterThanOrEqual(s.Total):
		s.Status = SaleStatusPaid
	case s.DebtTotal.IsPositive():
		s.Status = SaleStatusDebt
	case s.PaidTotal.IsPositive():
		s.Status = SaleStatusPartial
	default:
		s.Status = SaleStatusPending
	}
}
