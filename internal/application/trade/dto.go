package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/trade"
)

// CreateSaleRequest is the checkout input
type CreateSaleRequest struct {
	CustomerID  *uuid.UUID              `json:"customer_id"`
	WarehouseID uuid.UUID               `json:"warehouse_id"`
	Items       []CreateSaleItemRequest `json:"items"`

	// Exactly one of FinalPrice and DiscountAmount may be set. FinalPrice is
	// the price the operator agreed at the counter; the discount is derived
	// from it.
	FinalPrice     *decimal.Decimal `json:"final_price"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`

	// DeliveryCost is charged on top of the discounted goods total.
	DeliveryCost decimal.Decimal `json:"delivery_cost"`

	Payments []PaymentRequest `json:"payments"`
	// BookRemainderAsDebt sends any unpaid remainder to the customer's debt
	// ledger. Requires a customer.
	BookRemainderAsDebt bool   `json:"book_remainder_as_debt"`
	CreatedBy           string `json:"created_by"`
}

// CreateSaleItemRequest is one checkout line
type CreateSaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	// UnitCode selects the UOM the quantity was entered in; empty means the
	// product's base unit.
	UnitCode string `json:"unit_code"`
	// PriceOverride beats every resolved price when set.
	PriceOverride *decimal.Decimal `json:"price_override"`
}

// PaymentRequest is one payment taken at checkout
type PaymentRequest struct {
	Method trade.PaymentMethod `json:"method"`
	Amount decimal.Decimal     `json:"amount"`
}

// CancelSaleRequest identifies who cancelled a sale and why. Restock controls
// whether the cancelled lines return to stock.
type CancelSaleRequest struct {
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason"`
	Restock     bool   `json:"restock"`
}

// AddPaymentRequest records a later payment against a confirmed sale
type AddPaymentRequest struct {
	Method    trade.PaymentMethod `json:"method"`
	Amount    decimal.Decimal     `json:"amount"`
	CreatedBy string              `json:"created_by"`
}

// SaleItemResponse mirrors one persisted sale line
type SaleItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCode       string          `json:"unit_code"`
	BaseQuantity   decimal.Decimal `json:"base_quantity"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

// SaleResponse mirrors a persisted sale
type SaleResponse struct {
	ID              uuid.UUID          `json:"id"`
	Number          string             `json:"number"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	WarehouseID     uuid.UUID          `json:"warehouse_id"`
	Status          trade.SaleStatus   `json:"status"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountTotal   decimal.Decimal    `json:"discount_total"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	DeliveryCost    decimal.Decimal    `json:"delivery_cost"`
	Total           decimal.Decimal    `json:"total"`
	PaidTotal       decimal.Decimal    `json:"paid_total"`
	DebtTotal       decimal.Decimal    `json:"debt_total"`
	SaleDate        time.Time          `json:"sale_date"`
	CreatedBy       string             `json:"created_by"`
	Items           []SaleItemResponse `json:"items"`
}

// ToSaleResponse maps a sale aggregate onto the response DTO
func ToSaleResponse(sale *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, SaleItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitCode:       item.UnitCode,
			BaseQuantity:   item.BaseQuantity,
			OriginalPrice:  item.OriginalPrice,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			TotalPrice:     item.TotalPrice,
		})
	}

	return SaleResponse{
		ID:              sale.ID,
		Number:          sale.Number,
		CustomerID:      sale.CustomerID,
		WarehouseID:     sale.WarehouseID,
		Status:          sale.Status,
		Subtotal:        sale.Subtotal,
		DiscountTotal:   sale.DiscountTotal,
		DiscountPercent: sale.DiscountPercent,
		DeliveryCost:    sale.DeliveryCost,
		Total:           sale.Total,
		PaidTotal:       sale.PaidTotal,
		DebtTotal:       sale.DebtTotal,
		SaleDate:        sale.SaleDate,
		CreatedBy:       sale.CreatedBy,
		Items:           items,
	}
}
