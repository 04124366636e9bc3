package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/retail-erp/backend/internal/application/inventory"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/shared"
	"github.com/retail-erp/backend/internal/interfaces/http/dto"
)

// InventoryHandler handles stock API endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// StockIncomeRequest represents a goods receipt
type StockIncomeRequest struct {
	ProductID   string          `json:"product_id" binding:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" binding:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCode    string          `json:"unit_code" binding:"max=20"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"required,gte=0"`
	Note        string          `json:"note" binding:"max=500"`
	CreatedBy   string          `json:"created_by" binding:"required,max=100"`
}

// StockAdjustmentRequest represents a manual stock correction
type StockAdjustmentRequest struct {
	ProductID   string          `json:"product_id" binding:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" binding:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCode    string          `json:"unit_code" binding:"max=20"`
	Type        string          `json:"type" binding:"required,oneof=adjustment_increase adjustment_decrease write_off internal_use"`
	Note        string          `json:"note" binding:"max=500"`
	CreatedBy   string          `json:"created_by" binding:"required,max=100"`
}

// TransferStockRequest represents a warehouse-to-warehouse transfer
type TransferStockRequest struct {
	ProductID       string          `json:"product_id" binding:"required,uuid"`
	FromWarehouseID string          `json:"from_warehouse_id" binding:"required,uuid"`
	ToWarehouseID   string          `json:"to_warehouse_id" binding:"required,uuid"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCode        string          `json:"unit_code" binding:"max=20"`
	Note            string          `json:"note" binding:"max=500"`
	CreatedBy       string          `json:"created_by" binding:"required,max=100"`
}

// CorrectMovementRequest represents a movement correction
type CorrectMovementRequest struct {
	Quantity  decimal.Decimal  `json:"quantity" binding:"required,gt=0"`
	UnitCode  string           `json:"unit_code" binding:"max=20"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	Reason    string           `json:"reason" binding:"required,max=500"`
	CreatedBy string           `json:"created_by" binding:"required,max=100"`
}

// DeleteMovementRequest represents a movement soft-delete
type DeleteMovementRequest struct {
	Reason    string `json:"reason" binding:"required,max=500"`
	DeletedBy string `json:"deleted_by" binding:"required,max=100"`
}

// Income handles POST /inventory/income
func (h *InventoryHandler) Income(c *gin.Context) {
	var req StockIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movement, err := h.inventoryService.StockIncome(c.Request.Context(), inventoryapp.StockIncomeRequest{
		ProductID:   uuid.MustParse(req.ProductID),
		WarehouseID: uuid.MustParse(req.WarehouseID),
		Quantity:    req.Quantity,
		UnitCode:    req.UnitCode,
		UnitCost:    req.UnitCost,
		Note:        req.Note,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, movement)
}

// Adjust handles POST /inventory/adjustments
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movement, err := h.inventoryService.StockAdjustment(c.Request.Context(), inventoryapp.StockAdjustmentRequest{
		ProductID:   uuid.MustParse(req.ProductID),
		WarehouseID: uuid.MustParse(req.WarehouseID),
		Quantity:    req.Quantity,
		UnitCode:    req.UnitCode,
		Type:        inventory.MovementType(req.Type),
		Note:        req.Note,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, movement)
}

// Transfer handles POST /inventory/transfers
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.inventoryService.TransferStock(c.Request.Context(), inventoryapp.TransferStockRequest{
		ProductID:       uuid.MustParse(req.ProductID),
		FromWarehouseID: uuid.MustParse(req.FromWarehouseID),
		ToWarehouseID:   uuid.MustParse(req.ToWarehouseID),
		Quantity:        req.Quantity,
		UnitCode:        req.UnitCode,
		Note:            req.Note,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Correct handles POST /inventory/movements/:id/correct
func (h *InventoryHandler) Correct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid movement ID")
		return
	}

	var req CorrectMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movement, err := h.inventoryService.CorrectMovement(c.Request.Context(), id, inventoryapp.CorrectMovementRequest{
		Quantity:  req.Quantity,
		UnitCode:  req.UnitCode,
		UnitCost:  req.UnitCost,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, movement)
}

// Delete handles DELETE /inventory/movements/:id
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid movement ID")
		return
	}

	var req DeleteMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.inventoryService.DeleteMovement(c.Request.Context(), id, inventoryapp.DeleteMovementRequest{
		Reason:    req.Reason,
		DeletedBy: req.DeletedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// GetStock handles GET /inventory/stocks/:productId/:warehouseId
func (h *InventoryHandler) GetStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	warehouseID, err := uuid.Parse(c.Param("warehouseId"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID")
		return
	}

	stock, err := h.inventoryService.GetStock(c.Request.Context(), productID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, stock)
}

// ListMovements handles GET /inventory/movements?product_id=...
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	filter.OrderBy = "occurred_at"
	if list.Page > 0 {
		filter.Page = list.Page
	}
	if list.PageSize > 0 {
		filter.PageSize = list.PageSize
	}
	if list.OrderBy != "" {
		filter.OrderBy = list.OrderBy
	}
	if list.OrderDir != "" {
		filter.OrderDir = list.OrderDir
	}

	movements, err := h.inventoryService.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, movements)
}

// RegisterRoutes registers inventory routes on the API group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inv := rg.Group("/inventory")
	{
		inv.POST("/income", h.Income)
		inv.POST("/adjustments", h.Adjust)
		inv.POST("/transfers", h.Transfer)
		inv.GET("/movements", h.ListMovements)
		inv.POST("/movements/:id/correct", h.Correct)
		inv.DELETE("/movements/:id", h.Delete)
		inv.GET("/stocks/:productId/:warehouseId", h.GetStock)
	}
}
