package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/shared"
)

// CreateProductRequest registers a new product in the catalog
type CreateProductRequest struct {
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	BaseUnit           string          `json:"base_unit"`
	CostPrice          decimal.Decimal `json:"cost_price"`
	SalePrice          decimal.Decimal `json:"sale_price"`
	VIPPrice           decimal.Decimal `json:"vip_price"`
	Barcode            string          `json:"barcode"`
	AllowNegativeStock bool            `json:"allow_negative_stock"`
}

// AddUnitRequest registers a UOM conversion row. When RelativeToUnit is
// empty the factor is taken against the base unit; otherwise the new unit is
// defined as Ratio of the named existing unit and the base factor is derived.
type AddUnitRequest struct {
	UnitCode       string           `json:"unit_code"`
	UnitName       string           `json:"unit_name"`
	Factor         decimal.Decimal  `json:"factor"`
	RelativeToUnit string           `json:"relative_to_unit"`
	Ratio          decimal.Decimal  `json:"ratio"`
	SellingPrice   *decimal.Decimal `json:"selling_price"`
}

// ProductUnitResponse mirrors a persisted UOM row
type ProductUnitResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	UnitCode     string          `json:"unit_code"`
	UnitName     string          `json:"unit_name"`
	Factor       decimal.Decimal `json:"factor"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// ProductResponse mirrors a persisted product
type ProductResponse struct {
	ID                 uuid.UUID             `json:"id"`
	Code               string                `json:"code"`
	Name               string                `json:"name"`
	BaseUnit           string                `json:"base_unit"`
	CostPrice          decimal.Decimal       `json:"cost_price"`
	SalePrice          decimal.Decimal       `json:"sale_price"`
	VIPPrice           decimal.Decimal       `json:"vip_price"`
	Barcode            string                `json:"barcode"`
	AllowNegativeStock bool                  `json:"allow_negative_stock"`
	Status             catalog.ProductStatus `json:"status"`
	Units              []ProductUnitResponse `json:"units"`
}

// ProductService manages the product catalog and its UOM configuration
type ProductService struct {
	products catalog.ProductRepository
	units    catalog.ProductUnitRepository
	logger   *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(products catalog.ProductRepository, units catalog.ProductUnitRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		units:    units,
		logger:   logger,
	}
}

// CreateProduct registers a product
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Code, req.Name, req.BaseUnit)
	if err != nil {
		return nil, err
	}
	if err := product.SetPrices(req.CostPrice, req.SalePrice, req.VIPPrice); err != nil {
		return nil, err
	}
	product.Barcode = req.Barcode
	product.SetAllowNegativeStock(req.AllowNegativeStock)

	if _, err := s.products.FindByCode(ctx, req.Code); err == nil {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Product code %s already exists", req.Code)
	} else if !shared.IsCode(err, shared.CodeNotFound) {
		return nil, err
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
	)
	resp := toProductResponse(product)
	return &resp, nil
}

// AddUnit registers a UOM conversion row for a product. The row always ends
// up stored relative to the base unit, whichever unit it was defined against.
func (s *ProductService) AddUnit(ctx context.Context, productID uuid.UUID, req AddUnitRequest) (*ProductUnitResponse, error) {
	product, err := s.products.FindByIDWithUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	if req.UnitCode == product.BaseUnit {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Unit %s is the base unit", req.UnitCode)
	}
	if product.UnitByCode(req.UnitCode) != nil {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "Unit %s is already configured", req.UnitCode)
	}

	var unit *catalog.ProductUnit
	switch {
	case req.RelativeToUnit == "":
		unit, err = catalog.NewProductUnit(product.ID, req.UnitCode, req.UnitName, req.Factor)
	case req.RelativeToUnit == product.BaseUnit:
		// Base unit has implicit factor 1, so the derived factor is 1/ratio.
		base := catalog.ProductUnit{ProductID: product.ID, UnitCode: product.BaseUnit, Factor: decimal.NewFromInt(1)}
		unit, err = catalog.NewProductUnitFromExisting(&base, req.UnitCode, req.UnitName, req.Ratio)
	default:
		existing := product.UnitByCode(req.RelativeToUnit)
		if existing == nil {
			return nil, shared.NewDomainErrorf(shared.CodeUnitNotConfigured,
				"Unit %s is not configured for product %s", req.RelativeToUnit, product.Code)
		}
		unit, err = catalog.NewProductUnitFromExisting(existing, req.UnitCode, req.UnitName, req.Ratio)
	}
	if err != nil {
		return nil, err
	}
	if req.SellingPrice != nil {
		if err := unit.SetSellingPrice(*req.SellingPrice); err != nil {
			return nil, err
		}
	}

	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}

	s.logger.Info("product unit configured",
		zap.String("product_id", product.ID.String()),
		zap.String("unit_code", unit.UnitCode),
		zap.String("factor", unit.Factor.String()),
	)
	resp := toUnitResponse(unit)
	return &resp, nil
}

// SetUnitPrice sets or updates the UOM-specific selling price
func (s *ProductService) SetUnitPrice(ctx context.Context, productID uuid.UUID, unitCode string, price decimal.Decimal) (*ProductUnitResponse, error) {
	unit, err := s.units.FindByProductAndCode(ctx, productID, unitCode)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeUnitNotConfigured,
				"Unit %s is not configured for this product", unitCode)
		}
		return nil, err
	}
	if err := unit.SetSellingPrice(price); err != nil {
		return nil, err
	}
	if err := s.units.Save(ctx, unit); err != nil {
		return nil, err
	}
	resp := toUnitResponse(unit)
	return &resp, nil
}

// GetProduct loads a product with its UOM configuration
func (s *ProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByIDWithUnits(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// ConvertQuantity previews a UOM conversion without touching stock
func (s *ProductService) ConvertQuantity(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, unitCode string) (decimal.Decimal, error) {
	product, err := s.products.FindByIDWithUnits(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return catalog.ConvertToBaseUnit(product, quantity, unitCode)
}

func toUnitResponse(unit *catalog.ProductUnit) ProductUnitResponse {
	return ProductUnitResponse{
		ID:           unit.ID,
		ProductID:    unit.ProductID,
		UnitCode:     unit.UnitCode,
		UnitName:     unit.UnitName,
		Factor:       unit.Factor,
		SellingPrice: unit.SellingPrice,
	}
}

func toProductResponse(product *catalog.Product) ProductResponse {
	units := make([]ProductUnitResponse, 0, len(product.Units))
	for i := range product.Units {
		units = append(units, toUnitResponse(&product.Units[i]))
	}
	return ProductResponse{
		ID:                 product.ID,
		Code:               product.Code,
		Name:               product.Name,
		BaseUnit:           product.BaseUnit,
		CostPrice:          product.CostPrice,
		SalePrice:          product.SalePrice,
		VIPPrice:           product.VIPPrice,
		Barcode:            product.Barcode,
		AllowNegativeStock: product.AllowNegativeStock,
		Status:             product.Status,
		Units:              units,
	}
}
