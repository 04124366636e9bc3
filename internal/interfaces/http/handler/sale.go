package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	tradeapp "github.com/retail-erp/backend/internal/application/trade"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// SaleHandler handles checkout API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *tradeapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *tradeapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSaleRequest represents a checkout request
type CreateSaleRequest struct {
	CustomerID  *string                 `json:"customer_id" binding:"omitempty,uuid"`
	WarehouseID string                  `json:"warehouse_id" binding:"required,uuid"`
	Items       []CreateSaleItemRequest `json:"items" binding:"required,min=1,dive"`

	FinalPrice     *decimal.Decimal `json:"final_price"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	DeliveryCost   decimal.Decimal  `json:"delivery_cost" binding:"omitempty,gte=0"`

	Payments            []SalePaymentRequest `json:"payments" binding:"omitempty,dive"`
	BookRemainderAsDebt bool                 `json:"book_remainder_as_debt"`
	CreatedBy           string               `json:"created_by" binding:"required,max=100"`
}

// CreateSaleItemRequest represents one checkout line
type CreateSaleItemRequest struct {
	ProductID     string           `json:"product_id" binding:"required,uuid"`
	Quantity      decimal.Decimal  `json:"quantity" binding:"required,gt=0"`
	UnitCode      string           `json:"unit_code" binding:"max=20"`
	PriceOverride *decimal.Decimal `json:"price_override"`
}

// SalePaymentRequest represents one payment taken at checkout
type SalePaymentRequest struct {
	Method string          `json:"method" binding:"required,oneof=cash card transfer advance"`
	Amount decimal.Decimal `json:"amount" binding:"required,gt=0"`
}

// CancelSaleRequest represents a cancellation request
type CancelSaleRequest struct {
	CancelledBy string `json:"cancelled_by" binding:"required,max=100"`
	Reason      string `json:"reason" binding:"required,max=500"`
	Restock     bool   `json:"restock"`
}

// AddPaymentRequest represents a later payment against a confirmed sale
type AddPaymentRequest struct {
	Method    string          `json:"method" binding:"required,oneof=cash card transfer advance"`
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	CreatedBy string          `json:"created_by" binding:"required,max=100"`
}

// Create handles POST /trade/sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := tradeapp.CreateSaleRequest{
		WarehouseID:         uuid.MustParse(req.WarehouseID),
		FinalPrice:          req.FinalPrice,
		DiscountAmount:      req.DiscountAmount,
		DeliveryCost:        req.DeliveryCost,
		BookRemainderAsDebt: req.BookRemainderAsDebt,
		CreatedBy:           req.CreatedBy,
	}
	if req.CustomerID != nil {
		customerID := uuid.MustParse(*req.CustomerID)
		appReq.CustomerID = &customerID
	}
	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, tradeapp.CreateSaleItemRequest{
			ProductID:     uuid.MustParse(item.ProductID),
			Quantity:      item.Quantity,
			UnitCode:      item.UnitCode,
			PriceOverride: item.PriceOverride,
		})
	}
	for _, payment := range req.Payments {
		appReq.Payments = append(appReq.Payments, tradeapp.PaymentRequest{
			Method: trade.PaymentMethod(payment.Method),
			Amount: payment.Amount,
		})
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), appReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sale)
}

// Cancel handles POST /trade/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), id, tradeapp.CancelSaleRequest{
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
		Restock:     req.Restock,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, sale)
}

// AddPayment handles POST /trade/sales/:id/payments
func (h *SaleHandler) AddPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.AddPayment(c.Request.Context(), id, tradeapp.AddPaymentRequest{
		Method:    trade.PaymentMethod(req.Method),
		Amount:    req.Amount,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, sale)
}

// Get handles GET /trade/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, sale)
}

// RegisterRoutes registers sale routes on the API group
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/trade/sales")
	{
		sales.POST("", h.Create)
		sales.GET("/:id", h.Get)
		sales.POST("/:id/cancel", h.Cancel)
		sales.POST("/:id/payments", h.AddPayment)
	}
}
