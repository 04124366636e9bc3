package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/shared"
)

// InventoryService handles stock operations outside of checkout: purchase
// income, adjustments, transfers and ledger corrections.
type InventoryService struct {
	scope  TransactionScope
	clock  shared.Clock
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(scope TransactionScope, clock shared.Clock, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		scope:  scope,
		clock:  clock,
		logger: logger,
	}
}

// StockIncome receives purchased goods. The incoming cost folds into the
// moving average and also overwrites the product's catalog cost price, so the
// catalog always shows the latest purchase cost.
func (s *InventoryService) StockIncome(ctx context.Context, req StockIncomeRequest) (*MovementResponse, error) {
	if req.UnitCost.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit cost cannot be negative")
	}

	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDWithUnits(ctx, req.ProductID)
		if err != nil {
			return err
		}

		baseQty, err := catalog.ConvertToBaseUnit(product, req.Quantity, req.UnitCode)
		if err != nil {
			return err
		}
		baseUnitCost := perBaseUnitCost(product, req.UnitCode, req.UnitCost)

		if _, err := repos.StockRepo().GetOrCreate(ctx, req.ProductID, req.WarehouseID); err != nil {
			return err
		}
		stock, err := repos.StockRepo().FindForUpdate(ctx, req.ProductID, req.WarehouseID)
		if err != nil {
			return err
		}

		stockBefore := stock.Quantity
		if err := stock.Add(baseQty, baseUnitCost); err != nil {
			return err
		}

		unitCode := req.UnitCode
		if unitCode == "" {
			unitCode = product.BaseUnit
		}
		// Income entered directly at the counter has no backing purchase
		// document, so the reference stays empty.
		movement, err = inventory.NewStockMovement(
			req.ProductID, req.WarehouseID,
			inventory.MovementTypePurchase,
			req.Quantity, unitCode, baseQty,
			baseUnitCost, stockBefore, stock.Quantity,
			inventory.DocumentRef{}, req.CreatedBy, s.clock.Now(),
		)
		if err != nil {
			return err
		}
		movement.Note = req.Note

		if err := repos.MovementRepo().Save(ctx, movement); err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, stock); err != nil {
			return err
		}

		if err := product.UpdateCostPrice(baseUnitCost); err != nil {
			return err
		}
		return repos.ProductRepo().SaveWithLock(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	response := ToMovementResponse(movement)
	return &response, nil
}

// StockAdjustment corrects the on-hand quantity. Increases are valued at the
// current average so they do not distort costing; decreases leave at the
// average like any other outflow.
func (s *InventoryService) StockAdjustment(ctx context.Context, req StockAdjustmentRequest) (*MovementResponse, error) {
	if !isAdjustmentType(req.Type) {
		return nil, shared.NewDomainErrorf(shared.CodeValidation, "%q is not an adjustment type", req.Type)
	}

	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDWithUnits(ctx, req.ProductID)
		if err != nil {
			return err
		}
		warehouse, err := repos.WarehouseRepo().FindByID(ctx, req.WarehouseID)
		if err != nil {
			return err
		}

		baseQty, err := catalog.ConvertToBaseUnit(product, req.Quantity, req.UnitCode)
		if err != nil {
			return err
		}

		if _, err := repos.StockRepo().GetOrCreate(ctx, req.ProductID, req.WarehouseID); err != nil {
			return err
		}
		stock, err := repos.StockRepo().FindForUpdate(ctx, req.ProductID, req.WarehouseID)
		if err != nil {
			return err
		}

		stockBefore := stock.Quantity
		var unitCost decimal.Decimal
		if req.Type.IsInbound() {
			unitCost = stock.AverageCost
			if unitCost.IsZero() {
				unitCost = product.CostPrice
			}
			if err := stock.Add(baseQty, unitCost); err != nil {
				return err
			}
		} else {
			allowNegative := product.AllowNegativeStock || warehouse.AllowNegativeStock
			unitCost, err = stock.Remove(baseQty, allowNegative)
			if err != nil {
				return err
			}
		}

		unitCode := req.UnitCode
		if unitCode == "" {
			unitCode = product.BaseUnit
		}
		movement, err = inventory.NewStockMovement(
			req.ProductID, req.WarehouseID,
			req.Type,
			req.Quantity, unitCode, baseQty,
			unitCost, stockBefore, stock.Quantity,
			inventory.DocumentRef{}, req.CreatedBy, s.clock.Now(),
		)
		if err != nil {
			return err
		}
		movement.Note = req.Note

		if err := repos.MovementRepo().Save(ctx, movement); err != nil {
			return err
		}
		return repos.StockRepo().SaveWithLock(ctx, stock)
	})
	if err != nil {
		return nil, err
	}

	response := ToMovementResponse(movement)
	return &response, nil
}

// TransferStock moves stock between warehouses. The quantity is reserved at
// the source first so a concurrent sale cannot take it while the transfer is
// in flight, then leaves the source and arrives at the destination at the
// source's average cost.
func (s *InventoryService) TransferStock(ctx context.Context, req TransferStockRequest) error {
	if req.FromWarehouseID == req.ToWarehouseID {
		return shared.NewDomainError(shared.CodeValidation, "Source and destination warehouses must differ")
	}

	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDWithUnits(ctx, req.ProductID)
		if err != nil {
			return err
		}

		baseQty, err := catalog.ConvertToBaseUnit(product, req.Quantity, req.UnitCode)
		if err != nil {
			return err
		}

		source, err := repos.StockRepo().FindForUpdate(ctx, req.ProductID, req.FromWarehouseID)
		if err != nil {
			return err
		}
		if _, err := repos.StockRepo().GetOrCreate(ctx, req.ProductID, req.ToWarehouseID); err != nil {
			return err
		}
		dest, err := repos.StockRepo().FindForUpdate(ctx, req.ProductID, req.ToWarehouseID)
		if err != nil {
			return err
		}

		if err := source.Reserve(baseQty); err != nil {
			return err
		}

		transferID := uuid.New()
		now := s.clock.Now()
		unitCode := req.UnitCode
		if unitCode == "" {
			unitCode = product.BaseUnit
		}

		sourceBefore := source.Quantity
		if err := source.Release(baseQty); err != nil {
			return err
		}
		unitCost, err := source.Remove(baseQty, false)
		if err != nil {
			return err
		}
		out, err := inventory.NewStockMovement(
			req.ProductID, req.FromWarehouseID,
			inventory.MovementTypeTransferOut,
			req.Quantity, unitCode, baseQty,
			unitCost, sourceBefore, source.Quantity,
			inventory.RefTransfer(transferID), req.CreatedBy, now,
		)
		if err != nil {
			return err
		}
		out.Note = req.Note

		destBefore := dest.Quantity
		if err := dest.Add(baseQty, unitCost); err != nil {
			return err
		}
		in, err := inventory.NewStockMovement(
			req.ProductID, req.ToWarehouseID,
			inventory.MovementTypeTransferIn,
			req.Quantity, unitCode, baseQty,
			unitCost, destBefore, dest.Quantity,
			inventory.RefTransfer(transferID), req.CreatedBy, now,
		)
		if err != nil {
			return err
		}
		in.Note = req.Note

		if err := repos.MovementRepo().Save(ctx, out); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, in); err != nil {
			return err
		}
		if err := repos.StockRepo().SaveWithLock(ctx, source); err != nil {
			return err
		}
		return repos.StockRepo().SaveWithLock(ctx, dest)
	})
}

// CorrectMovement retires a mis-entered movement and appends a corrected one
// in its place, then replays the surviving ledger to rebuild the stock's
// quantity and average cost.
func (s *InventoryService) CorrectMovement(ctx context.Context, movementID uuid.UUID, req CorrectMovementRequest) (*MovementResponse, error) {
	var replacement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.MovementRepo().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		if original.IsDeleted() {
			return shared.NewDomainError(shared.CodeInvalidState, "Movement is already deleted")
		}

		product, err := repos.ProductRepo().FindByIDWithUnits(ctx, original.ProductID)
		if err != nil {
			return err
		}
		baseQty, err := catalog.ConvertToBaseUnit(product, req.Quantity, req.UnitCode)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := original.SoftDelete(req.CreatedBy, req.Reason, now); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, original); err != nil {
			return err
		}

		unitCost := original.UnitCost
		if req.UnitCost != nil {
			unitCost = *req.UnitCost
		}
		unitCode := req.UnitCode
		if unitCode == "" {
			unitCode = product.BaseUnit
		}

		// The replacement keeps the original's position in the ledger so the
		// replay applies it at the same point in history. Its stock snapshots
		// are filled in after the replay.
		replacement, err = inventory.NewStockMovement(
			original.ProductID, original.WarehouseID,
			original.Type,
			req.Quantity, unitCode, baseQty,
			unitCost, original.StockBefore, original.StockBefore.Add(signedQuantity(original.Type, baseQty)),
			original.Reference, req.CreatedBy, original.OccurredAt,
		)
		if err != nil {
			return err
		}
		replacement.MarkCorrects(original.ID)
		replacement.Note = req.Reason
		if err := repos.MovementRepo().Save(ctx, replacement); err != nil {
			return err
		}

		return s.replayStock(ctx, repos, original.ProductID, original.WarehouseID)
	})
	if err != nil {
		return nil, err
	}

	response := ToMovementResponse(replacement)
	return &response, nil
}

// DeleteMovement soft-deletes a ledger row and replays the survivors. The
// delete fails closed without an actor and a reason.
func (s *InventoryService) DeleteMovement(ctx context.Context, movementID uuid.UUID, req DeleteMovementRequest) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.MovementRepo().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		if err := movement.SoftDelete(req.DeletedBy, req.Reason, s.clock.Now()); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, movement); err != nil {
			return err
		}
		return s.replayStock(ctx, repos, movement.ProductID, movement.WarehouseID)
	})
}

// GetStock returns the stock record for a product in a warehouse
func (s *InventoryService) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*StockResponse, error) {
	var stock *inventory.Stock
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		stock, err = repos.StockRepo().FindByProductAndWarehouse(ctx, productID, warehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToStockResponse(stock)
	return &response, nil
}

// ListMovements returns the movement history for a product
func (s *InventoryService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]MovementResponse, error) {
	var movements []inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		movements, err = repos.MovementRepo().FindByProduct(ctx, productID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	return responses, nil
}

// replayStock rebuilds a stock record from its surviving movements. Linear in
// the length of the ledger; corrections are rare enough that this stays
// cheaper than maintaining incremental rollback state.
func (s *InventoryService) replayStock(ctx context.Context, repos TransactionalRepositories, productID, warehouseID uuid.UUID) error {
	stock, err := repos.StockRepo().FindForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	movements, err := repos.MovementRepo().FindSurvivingByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return err
	}

	stock.ResetForReplay()
	for i := range movements {
		m := &movements[i]
		if m.Type.IsInbound() {
			if err := stock.Add(m.BaseQuantity, m.UnitCost); err != nil {
				return err
			}
		} else {
			if _, err := stock.Remove(m.BaseQuantity, true); err != nil {
				return err
			}
		}
	}

	s.logger.Info("replayed stock ledger",
		zap.String("product_id", productID.String()),
		zap.String("warehouse_id", warehouseID.String()),
		zap.Int("movements", len(movements)),
		zap.String("quantity", stock.Quantity.String()),
		zap.String("average_cost", stock.AverageCost.String()))

	return repos.StockRepo().SaveWithLock(ctx, stock)
}

// perBaseUnitCost rescales a cost entered per UOM down to the base unit
func perBaseUnitCost(product *catalog.Product, unitCode string, unitCost decimal.Decimal) decimal.Decimal {
	if unitCode == "" || unitCode == product.BaseUnit {
		return unitCost
	}
	if unit := product.UnitByCode(unitCode); unit != nil && !unit.Factor.IsZero() {
		return unitCost.Div(unit.Factor).Round(4)
	}
	return unitCost
}

func isAdjustmentType(t inventory.MovementType) bool {
	switch t {
	case inventory.MovementTypeAdjustmentIncrease, inventory.MovementTypeAdjustmentDecrease,
		inventory.MovementTypeWriteOff, inventory.MovementTypeInternalUse:
		return true
	}
	return false
}

func signedQuantity(t inventory.MovementType, baseQty decimal.Decimal) decimal.Decimal {
	if t.IsOutbound() {
		return baseQty.Neg()
	}
	return baseQty
}
