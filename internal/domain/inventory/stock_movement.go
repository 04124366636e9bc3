package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypePurchase           MovementType = "purchase"
	MovementTypeSale               MovementType = "sale"
	MovementTypeTransferIn         MovementType = "transfer_in"
	MovementTypeTransferOut        MovementType = "transfer_out"
	MovementTypeAdjustmentIncrease MovementType = "adjustment_increase"
	MovementTypeAdjustmentDecrease MovementType = "adjustment_decrease"
	MovementTypeReturn             MovementType = "return"
	MovementTypeWriteOff           MovementType = "write_off"
	MovementTypeInternalUse        MovementType = "internal_use"
)

// IsInbound reports whether the movement type increases stock
func (t MovementType) IsInbound() bool {
	switch t {
	case MovementTypePurchase, MovementTypeTransferIn, MovementTypeAdjustmentIncrease, MovementTypeReturn:
		return true
	}
	return false
}

// IsOutbound reports whether the movement type decreases stock
func (t MovementType) IsOutbound() bool {
	switch t {
	case MovementTypeSale, MovementTypeTransferOut, MovementTypeAdjustmentDecrease,
		MovementTypeWriteOff, MovementTypeInternalUse:
		return true
	}
	return false
}

// IsValid reports whether the movement type is a known value
func (t MovementType) IsValid() bool {
	return t.IsInbound() || t.IsOutbound()
}

// DocumentKind names the kind of source document a movement points at
type DocumentKind string

const (
	DocumentKindNone     DocumentKind = ""
	DocumentKindSale     DocumentKind = "sale"
	DocumentKindTransfer DocumentKind = "transfer"
)

// DocumentRef is a typed reference to the document that caused a movement.
// The zero value means the movement was entered manually with no backing
// document. Constructed only through the Ref* helpers so kind and ID cannot
// disagree.
type DocumentRef struct {
	Kind DocumentKind `gorm:"column:reference_kind;type:varchar(20);not null;default:''"`
	ID   uuid.UUID    `gorm:"column:reference_id;type:uuid"`
}

// RefSale references a sale document
func RefSale(saleID uuid.UUID) DocumentRef {
	return DocumentRef{Kind: DocumentKindSale, ID: saleID}
}

// RefTransfer references a warehouse transfer document
func RefTransfer(transferID uuid.UUID) DocumentRef {
	return DocumentRef{Kind: DocumentKindTransfer, ID: transferID}
}

// IsZero reports whether the reference points at nothing
func (r DocumentRef) IsZero() bool {
	return r.Kind == DocumentKindNone
}

// StockMovement is one append-only row of the inventory ledger. Rows are
// never updated in place: corrections append a compensating movement, and
// removal is a soft delete that keeps the row for audit.
type StockMovement struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type        MovementType `gorm:"type:varchar(30);not null"`

	// Quantity as entered by the operator, in UnitCode; BaseQuantity is the
	// converted amount the ledger actually moves.
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCode     string          `gorm:"type:varchar(20);not null"`
	BaseQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	UnitCost  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	StockBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	Reference          DocumentRef `gorm:"embedded"`
	CorrectsMovementID *uuid.UUID  `gorm:"type:uuid;index"`

	Note       string    `gorm:"type:varchar(500)"`
	CreatedBy  string    `gorm:"type:varchar(100);not null"`
	OccurredAt time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`

	DeletedAt    *time.Time `gorm:"index"`
	DeletedBy    string     `gorm:"type:varchar(100)"`
	DeleteReason string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement appends a ledger row. StockBefore/StockAfter snapshot the
// on-hand quantity around the mutation so any row can be audited without
// replaying the whole ledger.
func NewStockMovement(
	productID, warehouseID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	unitCode string,
	baseQuantity decimal.Decimal,
	unitCost decimal.Decimal,
	stockBefore, stockAfter decimal.Decimal,
	reference DocumentRef,
	createdBy string,
	occurredAt time.Time,
) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Unknown movement type %q", movementType)
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement quantity must be positive")
	}
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement base quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement unit cost cannot be negative")
	}
	if createdBy == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Movement actor cannot be empty")
	}

	now := time.Now()
	return &StockMovement{
		ID:           uuid.New(),
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Type:         movementType,
		Quantity:     quantity,
		UnitCode:     unitCode,
		BaseQuantity: baseQuantity,
		UnitCost:     unitCost,
		TotalCost:    baseQuantity.Mul(unitCost).Round(2),
		StockBefore:  stockBefore,
		StockAfter:   stockAfter,
		Reference:    reference,
		CreatedBy:    createdBy,
		OccurredAt:   occurredAt,
		CreatedAt:    now,
	}, nil
}

// MarkCorrects links this movement as the compensating entry for an earlier one
func (m *StockMovement) MarkCorrects(originalID uuid.UUID) {
	m.CorrectsMovementID = &originalID
}

// SoftDelete retires the row from derived-state calculations while keeping it
// for audit. Both actor and reason are required; the delete fails closed
// rather than producing an unattributed hole in the ledger.
func (m *StockMovement) SoftDelete(actor, reason string, at time.Time) error {
	if m.DeletedAt != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Movement is already deleted")
	}
	if actor == "" {
		return shared.NewDomainError(shared.CodeValidation, "Delete actor is required")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Delete reason is required")
	}

	m.DeletedAt = &at
	m.DeletedBy = actor
	m.DeleteReason = reason

	return nil
}

// IsDeleted reports whether the row has been soft deleted
func (m *StockMovement) IsDeleted() bool {
	return m.DeletedAt != nil
}

// SignedBaseQuantity returns the base quantity with the sign of the movement
// direction, for replaying the ledger.
func (m *StockMovement) SignedBaseQuantity() decimal.Decimal {
	if m.Type.IsOutbound() {
		return m.BaseQuantity.Neg()
	}
	return m.BaseQuantity
}
