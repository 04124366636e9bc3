package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the payload handed to the print queue after a successful checkout
type Receipt struct {
	SaleID     uuid.UUID       `json:"sale_id"`
	SaleNumber string          `json:"sale_number"`
	Total      decimal.Decimal `json:"total"`
	PaidTotal  decimal.Decimal `json:"paid_total"`
	DebtTotal  decimal.Decimal `json:"debt_total"`
	SaleDate   time.Time       `json:"sale_date"`
	Lines      []ReceiptLine   `json:"lines"`
}

// ReceiptLine is one printed line of a receipt
type ReceiptLine struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCode string          `json:"unit_code"`
	Total    decimal.Decimal `json:"total"`
}

// ReceiptPrinter queues receipts for the POS printer. Printing is
// fire-and-forget: a queue failure never fails the sale.
type ReceiptPrinter interface {
	Enqueue(ctx context.Context, receipt Receipt) error
}

// SaleEvent notifies downstream consumers about checkout lifecycle changes
type SaleEvent struct {
	Kind       string          `json:"kind"`
	SaleID     uuid.UUID       `json:"sale_id"`
	SaleNumber string          `json:"sale_number"`
	Total      decimal.Decimal `json:"total"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Sale event kinds.
const (
	SaleEventCreated   = "sale.created"
	SaleEventCancelled = "sale.cancelled"
)

// NotificationSink publishes sale events. Like printing, publishing is
// fire-and-forget.
type NotificationSink interface {
	Notify(ctx context.Context, event SaleEvent) error
}
