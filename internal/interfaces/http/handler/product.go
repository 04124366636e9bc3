package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	catalogapp "github.com/retail-erp/backend/internal/application/catalog"
)

// ProductHandler handles catalog API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// CreateProductRequest represents a product registration
type CreateProductRequest struct {
	Code               string          `json:"code" binding:"required,max=50"`
	Name               string          `json:"name" binding:"required,max=200"`
	BaseUnit           string          `json:"base_unit" binding:"required,max=20"`
	CostPrice          decimal.Decimal `json:"cost_price" binding:"omitempty,gte=0"`
	SalePrice          decimal.Decimal `json:"sale_price" binding:"omitempty,gte=0"`
	VIPPrice           decimal.Decimal `json:"vip_price" binding:"omitempty,gte=0"`
	Barcode            string          `json:"barcode" binding:"max=64"`
	AllowNegativeStock bool            `json:"allow_negative_stock"`
}

// AddUnitRequest represents a UOM conversion registration
type AddUnitRequest struct {
	UnitCode       string           `json:"unit_code" binding:"required,max=20"`
	UnitName       string           `json:"unit_name" binding:"required,max=50"`
	Factor         decimal.Decimal  `json:"factor" binding:"omitempty,gt=0"`
	RelativeToUnit string           `json:"relative_to_unit" binding:"max=20"`
	Ratio          decimal.Decimal  `json:"ratio" binding:"omitempty,gt=0"`
	SellingPrice   *decimal.Decimal `json:"selling_price"`
}

// SetUnitPriceRequest represents a UOM selling price update
type SetUnitPriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required,gte=0"`
}

// ConvertRequest represents a UOM conversion preview
type ConvertRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	UnitCode string          `json:"unit_code" binding:"max=20"`
}

// Create handles POST /catalog/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), catalogapp.CreateProductRequest{
		Code:               req.Code,
		Name:               req.Name,
		BaseUnit:           req.BaseUnit,
		CostPrice:          req.CostPrice,
		SalePrice:          req.SalePrice,
		VIPPrice:           req.VIPPrice,
		Barcode:            req.Barcode,
		AllowNegativeStock: req.AllowNegativeStock,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, product)
}

// Get handles GET /catalog/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, product)
}

// AddUnit handles POST /catalog/products/:id/units
func (h *ProductHandler) AddUnit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req AddUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unit, err := h.productService.AddUnit(c.Request.Context(), id, catalogapp.AddUnitRequest{
		UnitCode:       req.UnitCode,
		UnitName:       req.UnitName,
		Factor:         req.Factor,
		RelativeToUnit: req.RelativeToUnit,
		Ratio:          req.Ratio,
		SellingPrice:   req.SellingPrice,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, unit)
}

// SetUnitPrice handles PUT /catalog/products/:id/units/:unitCode/price
func (h *ProductHandler) SetUnitPrice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req SetUnitPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	unit, err := h.productService.SetUnitPrice(c.Request.Context(), id, c.Param("unitCode"), req.Price)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, unit)
}

// Convert handles POST /catalog/products/:id/convert
func (h *ProductHandler) Convert(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	base, err := h.productService.ConvertQuantity(c.Request.Context(), id, req.Quantity, req.UnitCode)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, gin.H{
		"product_id":    id,
		"quantity":      req.Quantity,
		"unit_code":     req.UnitCode,
		"base_quantity": base,
	})
}

// RegisterRoutes registers catalog routes on the API group
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/catalog/products")
	{
		products.POST("", h.Create)
		products.GET("/:id", h.Get)
		products.POST("/:id/units", h.AddUnit)
		products.PUT("/:id/units/:unitCode/price", h.SetUnitPrice)
		products.POST("/:id/convert", h.Convert)
	}
}
