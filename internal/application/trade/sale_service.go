package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/shared"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// DocumentTypeSale is the allocator key for sale numbers.
const DocumentTypeSale = "sale"

// SaleService handles the checkout lifecycle. Every write path runs inside a
// single transaction scope: either the whole checkout lands, or none of it.
type SaleService struct {
	scope    TransactionScope
	clock    shared.Clock
	logger   *zap.Logger
	printer  ReceiptPrinter
	notifier NotificationSink
}

// NewSaleService creates a new SaleService
func NewSaleService(scope TransactionScope, clock shared.Clock, logger *zap.Logger) *SaleService {
	return &SaleService{
		scope:  scope,
		clock:  clock,
		logger: logger,
	}
}

// SetReceiptPrinter wires the POS print queue
func (s *SaleService) SetReceiptPrinter(printer ReceiptPrinter) {
	s.printer = printer
}

// SetNotificationSink wires the sale event sink
func (s *SaleService) SetNotificationSink(sink NotificationSink) {
	s.notifier = sink
}

// CreateSale runs the whole checkout: price resolution, stock pre-check,
// discount allocation, persistence, payments, debt booking, stock removal and
// customer statistics, all in one transaction.
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	if err := validateCreateSaleRequest(req); err != nil {
		return nil, err
	}

	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		warehouse, err := repos.WarehouseRepo().FindByID(ctx, req.WarehouseID)
		if err != nil {
			return err
		}
		if !warehouse.IsActive {
			return shared.NewDomainErrorf(shared.CodeValidation, "Warehouse %s is inactive", warehouse.Code)
		}

		var customer *partner.Customer
		if req.CustomerID != nil {
			customer, err = repos.CustomerRepo().FindForUpdate(ctx, *req.CustomerID)
			if err != nil {
				return err
			}
		}

		now := s.clock.Now()

		// Resolve each line and pre-check stock per product before anything
		// is written, so a short line late in the cart cannot leave earlier
		// lines half-committed.
		stocks := make(map[uuid.UUID]*inventory.Stock)
		required := make(map[uuid.UUID]decimal.Decimal)
		allowNegative := make(map[uuid.UUID]bool)
		items := make([]trade.SaleItem, 0, len(req.Items))

		for _, line := range req.Items {
			product, err := repos.ProductRepo().FindByIDWithUnits(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive() {
				return shared.NewDomainErrorf(shared.CodeValidation, "Product %s is not for sale", product.Code)
			}

			baseQty, err := catalog.ConvertToBaseUnit(product, line.Quantity, line.UnitCode)
			if err != nil {
				return err
			}

			unitCode, factor := resolveUnit(product, line.UnitCode)
			price := resolvePrice(product, customer, line.PriceOverride, unitCode, factor)

			items = append(items, trade.SaleItem{
				ID:            uuid.New(),
				ProductID:     product.ID,
				ProductName:   product.Name,
				Quantity:      line.Quantity,
				UnitCode:      unitCode,
				Factor:        factor,
				BaseQuantity:  baseQty,
				OriginalPrice: price,
				CreatedAt:     now,
			})

			if _, ok := stocks[product.ID]; !ok {
				if _, err := repos.StockRepo().GetOrCreate(ctx, product.ID, req.WarehouseID); err != nil {
					return err
				}
				stock, err := repos.StockRepo().FindForUpdate(ctx, product.ID, req.WarehouseID)
				if err != nil {
					return err
				}
				stocks[product.ID] = stock
				required[product.ID] = decimal.Zero
				allowNegative[product.ID] = product.AllowNegativeStock || warehouse.AllowNegativeStock
			}
			required[product.ID] = required[product.ID].Add(baseQty)
		}

		for productID, need := range required {
			if allowNegative[productID] {
				continue
			}
			if !stocks[productID].CanFulfill(need) {
				return shared.NewDomainErrorf(shared.CodeInsufficientStock,
					"Insufficient stock for product %s: requested %s, available %s",
					productID, need.String(), stocks[productID].AvailableQuantity().String())
			}
		}

		// A sequence slot burns even on rollback, so the number is not
		// allocated until the checkout has passed its pre-checks.
		number, err := repos.Numbers().Next(ctx, DocumentTypeSale)
		if err != nil {
			return err
		}
		sale, err = trade.NewSale(number, req.CustomerID, req.WarehouseID, req.CreatedBy, now)
		if err != nil {
			return err
		}
		if err := sale.SetDeliveryCost(req.DeliveryCost); err != nil {
			return err
		}
		for _, item := range items {
			if err := sale.AddItem(item); err != nil {
				return err
			}
		}

		totalDiscount, err := resolveDiscount(sale, req)
		if err != nil {
			return err
		}
		if err := sale.ApplyDiscount(totalDiscount); err != nil {
			return err
		}
		if err := sale.Confirm(); err != nil {
			return err
		}

		if err := repos.SaleRepo().Save(ctx, sale); err != nil {
			return err
		}

		for _, p := range req.Payments {
			// Paying from the advance balance spends real prepaid money, so
			// the balance comes down in the same transaction.
			if p.Method == trade.PaymentMethodAdvance {
				if customer == nil {
					return shared.NewDomainError(shared.CodeValidation, "Advance payment requires a customer")
				}
				if err := customer.UseAdvance(p.Amount); err != nil {
					return err
				}
			}
			if err := sale.AddPayment(p.Method, p.Amount, now, req.CreatedBy); err != nil {
				return err
			}
			if err := repos.SaleRepo().SavePayment(ctx, &sale.Payments[len(sale.Payments)-1]); err != nil {
				return err
			}
		}

		if outstanding := sale.Outstanding(); outstanding.IsPositive() && req.BookRemainderAsDebt {
			if customer == nil {
				return shared.NewDomainError(shared.CodeValidation, "Booking debt requires a customer")
			}
			balanceBefore := customer.CurrentDebt
			if err := customer.AddDebt(outstanding); err != nil {
				return err
			}
			debtTx, err := partner.NewDebtTransaction(
				customer.ID, partner.DebtTransactionTypeDebt, outstanding,
				balanceBefore, customer.CurrentDebt,
				partner.DebtSourceSale(sale.ID), req.CreatedBy, now,
			)
			if err != nil {
				return err
			}
			if err := repos.DebtRepo().Save(ctx, debtTx); err != nil {
				return err
			}
			if err := sale.RecordDebt(outstanding); err != nil {
				return err
			}
		}

		// Stock leaves last, valued at the moving average, one movement per
		// line so the ledger mirrors the receipt.
		for i := range sale.Items {
			item := &sale.Items[i]
			stock := stocks[item.ProductID]
			stockBefore := stock.Quantity

			unitCost, err := stock.Remove(item.BaseQuantity, allowNegative[item.ProductID])
			if err != nil {
				return err
			}
			item.UnitCost = unitCost

			movement, err := inventory.NewStockMovement(
				item.ProductID, req.WarehouseID,
				inventory.MovementTypeSale,
				item.Quantity, item.UnitCode, item.BaseQuantity,
				unitCost, stockBefore, stock.Quantity,
				inventory.RefSale(sale.ID), req.CreatedBy, now,
			)
			if err != nil {
				return err
			}
			if err := repos.MovementRepo().Save(ctx, movement); err != nil {
				return err
			}
		}
		for _, stock := range stocks {
			if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
				return err
			}
		}

		if customer != nil {
			customer.RecordPurchase(sale.Total, now)
			if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
				return err
			}
		}

		if err := repos.SaleRepo().SaveItems(ctx, sale.Items); err != nil {
			return err
		}
		return repos.SaleRepo().SaveWithLock(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, sale, SaleEventCreated)

	response := ToSaleResponse(sale)
	return &response, nil
}

// CancelSale terminates a sale and backs out any debt the sale created.
// Restocking is optional: goods that came back restock every line at the cost
// it left with, goods that are gone (spoiled, already consumed) do not.
func (s *SaleService) CancelSale(ctx context.Context, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByIDFull(ctx, saleID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := sale.Cancel(req.CancelledBy, req.Reason, now); err != nil {
			return err
		}

		if req.Restock {
			for _, item := range sale.Items {
				stock, err := repos.StockRepo().FindForUpdate(ctx, item.ProductID, sale.WarehouseID)
				if err != nil {
					return err
				}
				stockBefore := stock.Quantity

				if err := stock.Add(item.BaseQuantity, item.UnitCost); err != nil {
					return err
				}

				movement, err := inventory.NewStockMovement(
					item.ProductID, sale.WarehouseID,
					inventory.MovementTypeReturn,
					item.Quantity, item.UnitCode, item.BaseQuantity,
					item.UnitCost, stockBefore, stock.Quantity,
					inventory.RefSale(sale.ID), req.CancelledBy, now,
				)
				if err != nil {
					return err
				}
				if err := repos.MovementRepo().Save(ctx, movement); err != nil {
					return err
				}
				if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
					return err
				}
			}
		}

		if sale.DebtTotal.IsPositive() && sale.CustomerID != nil {
			customer, err := repos.CustomerRepo().FindForUpdate(ctx, *sale.CustomerID)
			if err != nil {
				return err
			}
			balanceBefore := customer.CurrentDebt
			if err := customer.ReverseDebt(sale.DebtTotal); err != nil {
				return err
			}
			debtTx, err := partner.NewDebtTransaction(
				customer.ID, partner.DebtTransactionTypeReversal, sale.DebtTotal,
				balanceBefore, customer.CurrentDebt,
				partner.DebtSourceSale(sale.ID), req.CancelledBy, now,
			)
			if err != nil {
				return err
			}
			if err := repos.DebtRepo().Save(ctx, debtTx); err != nil {
				return err
			}
			if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
				return err
			}
		}

		return repos.SaleRepo().SaveWithLock(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, sale, SaleEventCancelled)

	response := ToSaleResponse(sale)
	return &response, nil
}

// AddPayment records a later payment against a confirmed sale. Sales whose
// remainder was booked as debt settle through the debt ledger instead.
func (s *SaleService) AddPayment(ctx context.Context, saleID uuid.UUID, req AddPaymentRequest) (*SaleResponse, error) {
	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByIDFull(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.DebtTotal.IsPositive() {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Sale remainder was booked as debt; settle it through the debt ledger")
		}

		if req.Method == trade.PaymentMethodAdvance {
			if sale.CustomerID == nil {
				return shared.NewDomainError(shared.CodeValidation, "Advance payment requires a customer")
			}
			customer, err := repos.CustomerRepo().FindForUpdate(ctx, *sale.CustomerID)
			if err != nil {
				return err
			}
			if err := customer.UseAdvance(req.Amount); err != nil {
				return err
			}
			if err := repos.CustomerRepo().SaveWithLock(ctx, customer); err != nil {
				return err
			}
		}

		if err := sale.AddPayment(req.Method, req.Amount, s.clock.Now(), req.CreatedBy); err != nil {
			return err
		}
		if err := repos.SaleRepo().SavePayment(ctx, &sale.Payments[len(sale.Payments)-1]); err != nil {
			return err
		}
		return repos.SaleRepo().SaveWithLock(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// GetSale loads a sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByIDFull(ctx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// afterCommit pushes the receipt and event outside the transaction. Failures
// here are logged and swallowed: the sale is already committed.
func (s *SaleService) afterCommit(ctx context.Context, sale *trade.Sale, kind string) {
	if s.printer != nil && kind == SaleEventCreated {
		receipt := Receipt{
			SaleID:     sale.ID,
			SaleNumber: sale.Number,
			Total:      sale.Total,
			PaidTotal:  sale.PaidTotal,
			DebtTotal:  sale.DebtTotal,
			SaleDate:   sale.SaleDate,
		}
		for _, item := range sale.Items {
			receipt.Lines = append(receipt.Lines, ReceiptLine{
				Name:     item.ProductName,
				Quantity: item.Quantity,
				UnitCode: item.UnitCode,
				Total:    item.TotalPrice,
			})
		}
		if err := s.printer.Enqueue(ctx, receipt); err != nil {
			s.logger.Warn("failed to enqueue receipt",
				zap.String("sale_number", sale.Number), zap.Error(err))
		}
	}

	if s.notifier != nil {
		event := SaleEvent{
			Kind:       kind,
			SaleID:     sale.ID,
			SaleNumber: sale.Number,
			Total:      sale.Total,
			OccurredAt: s.clock.Now(),
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("failed to publish sale event",
				zap.String("sale_number", sale.Number), zap.Error(err))
		}
	}
}

func validateCreateSaleRequest(req CreateSaleRequest) error {
	if len(req.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Sale must have at least one item")
	}
	if req.CreatedBy == "" {
		return shared.NewDomainError(shared.CodeValidation, "Sale actor is required")
	}
	if req.FinalPrice != nil && req.DiscountAmount != nil {
		return shared.NewDomainError(shared.CodeValidation, "Set either final price or discount amount, not both")
	}
	for _, line := range req.Items {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeValidation, "Item quantity must be positive")
		}
		if line.PriceOverride != nil && line.PriceOverride.IsNegative() {
			return shared.NewDomainError(shared.CodeValidation, "Price override cannot be negative")
		}
	}
	for _, p := range req.Payments {
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
		}
	}
	return nil
}

// resolveUnit normalizes the entered unit to its code and base factor
func resolveUnit(product *catalog.Product, unitCode string) (string, decimal.Decimal) {
	if unitCode == "" || unitCode == product.BaseUnit {
		return product.BaseUnit, decimal.NewFromInt(1)
	}
	if unit := product.UnitByCode(unitCode); unit != nil {
		return unit.UnitCode, unit.Factor
	}
	return unitCode, decimal.NewFromInt(1)
}

// resolvePrice picks the per-entered-unit price. Operator override beats VIP
// price, VIP beats the unit's own selling price, and the catalog sale price
// is the fallback. Catalog prices are per base unit, so they scale by the
// unit factor.
func resolvePrice(product *catalog.Product, customer *partner.Customer, override *decimal.Decimal, unitCode string, factor decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	if customer != nil && customer.IsVIP && product.HasVIPPrice() {
		return product.VIPPrice.Mul(factor).Round(4)
	}
	if unitCode != product.BaseUnit {
		if unit := product.UnitByCode(unitCode); unit != nil && unit.HasSellingPrice() {
			return unit.SellingPrice
		}
	}
	return product.SalePrice.Mul(factor).Round(4)
}

func resolveDiscount(sale *trade.Sale, req CreateSaleRequest) (decimal.Decimal, error) {
	subtotal := decimal.Zero
	for i := range sale.Items {
		subtotal = subtotal.Add(sale.Items[i].LineTotal())
	}

	switch {
	case req.FinalPrice != nil:
		return trade.DiscountFromFinalPrice(subtotal, *req.FinalPrice)
	case req.DiscountAmount != nil:
		return *req.DiscountAmount, nil
	default:
		return decimal.Zero, nil
	}
}
