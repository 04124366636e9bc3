package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-erp/backend/internal/domain/inventory"
)

// StockIncomeRequest receives purchased goods into a warehouse
type StockIncomeRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    string          `json:"unit_code"`
	// UnitCost is per entered unit; the ledger stores it per base unit.
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Note      string          `json:"note"`
	CreatedBy string          `json:"created_by"`
}

// StockAdjustmentRequest corrects the on-hand quantity outside of trade
type StockAdjustmentRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    string          `json:"unit_code"`
	// Type must be one of the adjustment movement types: increase, decrease,
	// write_off or internal_use.
	Type      inventory.MovementType `json:"type"`
	Note      string                 `json:"note"`
	CreatedBy string                 `json:"created_by"`
}

// TransferStockRequest moves stock between warehouses
type TransferStockRequest struct {
	ProductID       uuid.UUID       `json:"product_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCode        string          `json:"unit_code"`
	Note            string          `json:"note"`
	CreatedBy       string          `json:"created_by"`
}

// CorrectMovementRequest replaces a mis-entered movement with a corrected one
type CorrectMovementRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCode string          `json:"unit_code"`
	// UnitCost applies to inbound movements only; outbound corrections are
	// re-valued at the replayed average.
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	Reason    string           `json:"reason"`
	CreatedBy string           `json:"created_by"`
}

// DeleteMovementRequest soft-deletes a movement from the ledger
type DeleteMovementRequest struct {
	Reason    string `json:"reason"`
	DeletedBy string `json:"deleted_by"`
}

// MovementResponse mirrors a persisted stock movement
type MovementResponse struct {
	ID           uuid.UUID              `json:"id"`
	ProductID    uuid.UUID              `json:"product_id"`
	WarehouseID  uuid.UUID              `json:"warehouse_id"`
	Type         inventory.MovementType `json:"type"`
	Quantity     decimal.Decimal        `json:"quantity"`
	UnitCode     string                 `json:"unit_code"`
	BaseQuantity decimal.Decimal        `json:"base_quantity"`
	UnitCost     decimal.Decimal        `json:"unit_cost"`
	TotalCost    decimal.Decimal        `json:"total_cost"`
	StockBefore  decimal.Decimal        `json:"stock_before"`
	StockAfter   decimal.Decimal        `json:"stock_after"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

// StockResponse mirrors a stock record
type StockResponse struct {
	ProductID        uuid.UUID       `json:"product_id"`
	WarehouseID      uuid.UUID       `json:"warehouse_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	Available        decimal.Decimal `json:"available"`
	AverageCost      decimal.Decimal `json:"average_cost"`
}

// ToMovementResponse maps a movement onto the response DTO
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		WarehouseID:  m.WarehouseID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		UnitCode:     m.UnitCode,
		BaseQuantity: m.BaseQuantity,
		UnitCost:     m.UnitCost,
		TotalCost:    m.TotalCost,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		OccurredAt:   m.OccurredAt,
	}
}

// ToStockResponse maps a stock record onto the response DTO
func ToStockResponse(stock *inventory.Stock) StockResponse {
	return StockResponse{
		ProductID:        stock.ProductID,
		WarehouseID:      stock.WarehouseID,
		Quantity:         stock.Quantity,
		ReservedQuantity: stock.ReservedQuantity,
		Available:        stock.AvailableQuantity(),
		AverageCost:      stock.AverageCost,
	}
}
