package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	partnerapp "github.com/retail-erp/backend/internal/application/partner"
)

// DebtHandler handles customer debt API endpoints
type DebtHandler struct {
	BaseHandler
	debtService *partnerapp.DebtService
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService *partnerapp.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// PayDebtRequest represents a debt payment
type PayDebtRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Note      string          `json:"note" binding:"max=500"`
	CreatedBy string          `json:"created_by" binding:"required,max=100"`
}

// AddDebtRequest represents a manual debt booking
type AddDebtRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,gt=0"`
	Note      string          `json:"note" binding:"max=500"`
	CreatedBy string          `json:"created_by" binding:"required,max=100"`
}

// Pay handles POST /partner/customers/:id/debt/payments
func (h *DebtHandler) Pay(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req PayDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	balance, err := h.debtService.PayDebt(c.Request.Context(), id, partnerapp.PayDebtRequest{
		Amount:    req.Amount,
		Note:      req.Note,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, balance)
}

// Add handles POST /partner/customers/:id/debt
func (h *DebtHandler) Add(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req AddDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	balance, err := h.debtService.AddDebt(c.Request.Context(), id, partnerapp.AddDebtRequest{
		Amount:    req.Amount,
		Note:      req.Note,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, balance)
}

// Ledger handles GET /partner/customers/:id/debt/ledger
func (h *DebtHandler) Ledger(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	ledger, err := h.debtService.GetLedger(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, ledger)
}

// Balance handles GET /partner/customers/:id/debt/balance
func (h *DebtHandler) Balance(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	balance, err := h.debtService.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, balance)
}

// Verify handles GET /partner/customers/:id/debt/verify
func (h *DebtHandler) Verify(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	consistent, err := h.debtService.VerifyLedger(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, gin.H{"consistent": consistent})
}

// RegisterRoutes registers debt routes on the API group
func (h *DebtHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/partner/customers")
	{
		customers.POST("/:id/debt", h.Add)
		customers.POST("/:id/debt/payments", h.Pay)
		customers.GET("/:id/debt/ledger", h.Ledger)
		customers.GET("/:id/debt/balance", h.Balance)
		customers.GET("/:id/debt/verify", h.Verify)
	}
}
