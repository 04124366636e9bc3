package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// DebtTransactionType classifies a debt ledger entry
type DebtTransactionType string

const (
	// DebtTransactionTypeDebt records new debt taken on, usually at checkout.
	DebtTransactionTypeDebt DebtTransactionType = "debt"
	// DebtTransactionTypePayment records money received against the debt.
	DebtTransactionTypePayment DebtTransactionType = "payment"
	// DebtTransactionTypeReversal backs out debt without money changing
	// hands, e.g. when the originating sale is cancelled.
	DebtTransactionTypeReversal DebtTransactionType = "reversal"
)

// IsValid reports whether the transaction type is a known value
func (t DebtTransactionType) IsValid() bool {
	switch t {
	case DebtTransactionTypeDebt, DebtTransactionTypePayment, DebtTransactionTypeReversal:
		return true
	}
	return false
}

// DebtSourceKind names the kind of document that caused a debt entry
type DebtSourceKind string

const (
	DebtSourceKindNone   DebtSourceKind = ""
	DebtSourceKindSale   DebtSourceKind = "sale"
	DebtSourceKindManual DebtSourceKind = "manual"
)

// DebtSource is a typed reference to the document behind a debt entry
type DebtSource struct {
	Kind DebtSourceKind `gorm:"column:source_kind;type:varchar(20);not null;default:''"`
	ID   uuid.UUID      `gorm:"column:source_id;type:uuid"`
}

// DebtSourceSale references the sale that produced the entry
func DebtSourceSale(saleID uuid.UUID) DebtSource {
	return DebtSource{Kind: DebtSourceKindSale, ID: saleID}
}

// DebtSourceManual marks an entry recorded by hand at the counter
func DebtSourceManual() DebtSource {
	return DebtSource{Kind: DebtSourceKindManual}
}

// DebtTransaction is one append-only row of a customer's debt ledger.
// BalanceBefore/BalanceAfter snapshot CurrentDebt around the entry so the
// ledger can be audited row by row, and accumulating DebtDelta over all rows
// reproduces the customer's CurrentDebt. Amount is the full money amount of
// the entry, which for an overpayment exceeds its debt effect because the
// excess lands in the advance balance.
type DebtTransaction struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CustomerID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Type          DebtTransactionType `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	BalanceBefore decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Source        DebtSource          `gorm:"embedded"`
	Note          string              `gorm:"type:varchar(500)"`
	CreatedBy     string              `gorm:"type:varchar(100);not null"`
	OccurredAt    time.Time           `gorm:"not null;index"`
	CreatedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DebtTransaction) TableName() string {
	return "debt_transactions"
}

// NewDebtTransaction appends a debt ledger row
func NewDebtTransaction(
	customerID uuid.UUID,
	txType DebtTransactionType,
	amount decimal.Decimal,
	balanceBefore, balanceAfter decimal.Decimal,
	source DebtSource,
	createdBy string,
	occurredAt time.Time,
) (*DebtTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Unknown debt transaction type %q", txType)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Transaction amount must be positive")
	}
	if createdBy == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Transaction actor cannot be empty")
	}

	return &DebtTransaction{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Source:        source,
		CreatedBy:     createdBy,
		OccurredAt:    occurredAt,
		CreatedAt:     time.Now(),
	}, nil
}

// DebtDelta returns the entry's effect on CurrentDebt
func (t *DebtTransaction) DebtDelta() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}
