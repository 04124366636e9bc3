package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/shared"
)

type inventoryTestEnv struct {
	service   *InventoryService
	products  *fakeProductRepo
	stocks    *fakeStockRepo
	movements *fakeMovementRepo

	warehouse *partner.Warehouse
}

func newInventoryTestEnv(t *testing.T) *inventoryTestEnv {
	t.Helper()

	env := &inventoryTestEnv{
		products:  newFakeProductRepo(),
		stocks:    newFakeStockRepo(),
		movements: newFakeMovementRepo(),
	}

	warehouse, err := partner.NewWarehouse("MAIN", "Main warehouse")
	require.NoError(t, err)
	env.warehouse = warehouse
	warehouses := newFakeWarehouseRepo()
	warehouses.warehouses[warehouse.ID] = warehouse

	scope := &NoOpTransactionScope{
		Products:   env.products,
		Stocks:     env.stocks,
		Movements:  env.movements,
		Warehouses: warehouses,
	}
	clock := shared.FixedClock{Instant: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	env.service = NewInventoryService(scope, clock, zap.NewNop())
	return env
}

func (env *inventoryTestEnv) seedProduct(t *testing.T, code string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(code, code, "kg")
	require.NoError(t, err)
	env.products.products[product.ID] = product
	return product
}

func TestStockIncome(t *testing.T) {
	ctx := context.Background()

	t.Run("income in an alternate unit lands in base units", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		karobka, err := catalog.NewProductUnit(product.ID, "karobka", "Karobka", decimal.NewFromInt(25))
		require.NoError(t, err)
		product.Units = append(product.Units, *karobka)

		// 4 karobka of 25 kg at 250,000 per karobka: 100 kg at 10,000/kg.
		resp, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(4),
			UnitCode:    "karobka",
			UnitCost:    decimal.NewFromInt(250000),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "100", resp.BaseQuantity.String())
		assert.Equal(t, "10000", resp.UnitCost.String())

		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		assert.Equal(t, "100", stock.Quantity.String())
		assert.Equal(t, "10000", stock.AverageCost.String())

		// no backing purchase document, so the reference points at nothing
		require.Len(t, env.movements.movements, 1)
		assert.True(t, env.movements.movements[0].Reference.IsZero())
	})

	t.Run("income overwrites the product's catalog cost price", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		require.NoError(t, product.SetPrices(decimal.NewFromInt(9000), decimal.NewFromInt(12000), decimal.Zero))

		_, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(9500),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "9500", product.CostPrice.String())
		// sale price untouched
		assert.Equal(t, "12000", product.SalePrice.String())
	})
}

func TestStockAdjustment(t *testing.T) {
	ctx := context.Background()

	income := func(t *testing.T, env *inventoryTestEnv, product *catalog.Product, qty, cost int64) {
		t.Helper()
		_, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(qty),
			UnitCost:    decimal.NewFromInt(cost),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)
	}

	t.Run("write-off leaves at the average cost", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		income(t, env, product, 100, 10000)

		resp, err := env.service.StockAdjustment(ctx, StockAdjustmentRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(3),
			Type:        inventory.MovementTypeWriteOff,
			Note:        "damaged bags",
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "10000", resp.UnitCost.String())
		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		assert.Equal(t, "97", stock.Quantity.String())
	})

	t.Run("decrease beyond stock fails", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		income(t, env, product, 10, 10000)

		_, err := env.service.StockAdjustment(ctx, StockAdjustmentRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(11),
			Type:        inventory.MovementTypeAdjustmentDecrease,
			CreatedBy:   "storekeeper-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
	})

	t.Run("non-adjustment type is rejected", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		_, err := env.service.StockAdjustment(ctx, StockAdjustmentRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(1),
			Type:        inventory.MovementTypeSale,
			CreatedBy:   "storekeeper-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestTransferStock(t *testing.T) {
	ctx := context.Background()

	t.Run("moves stock at the source's average cost", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		branch, err := partner.NewWarehouse("BRANCH", "Branch warehouse")
		require.NoError(t, err)

		_, err = env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10000),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		err = env.service.TransferStock(ctx, TransferStockRequest{
			ProductID:       product.ID,
			FromWarehouseID: env.warehouse.ID,
			ToWarehouseID:   branch.ID,
			Quantity:        decimal.NewFromInt(30),
			CreatedBy:       "storekeeper-1",
		})
		require.NoError(t, err)

		source := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		dest := env.stocks.stocks[stockKey{product.ID, branch.ID}]
		assert.Equal(t, "70", source.Quantity.String())
		assert.True(t, source.ReservedQuantity.IsZero())
		assert.Equal(t, "30", dest.Quantity.String())
		assert.Equal(t, "10000", dest.AverageCost.String())

		// out and in rows share one transfer reference
		var refs []inventory.DocumentRef
		for _, m := range env.movements.movements {
			if m.Type == inventory.MovementTypeTransferOut || m.Type == inventory.MovementTypeTransferIn {
				refs = append(refs, m.Reference)
			}
		}
		require.Len(t, refs, 2)
		assert.Equal(t, refs[0], refs[1])
		assert.Equal(t, inventory.DocumentKindTransfer, refs[0].Kind)
	})

	t.Run("transfer beyond available stock fails", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")
		branch, err := partner.NewWarehouse("BRANCH", "Branch warehouse")
		require.NoError(t, err)

		_, err = env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(10000),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		err = env.service.TransferStock(ctx, TransferStockRequest{
			ProductID:       product.ID,
			FromWarehouseID: env.warehouse.ID,
			ToWarehouseID:   branch.ID,
			Quantity:        decimal.NewFromInt(11),
			CreatedBy:       "storekeeper-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
	})

	t.Run("same source and destination is rejected", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		err := env.service.TransferStock(ctx, TransferStockRequest{
			ProductID:       product.ID,
			FromWarehouseID: env.warehouse.ID,
			ToWarehouseID:   env.warehouse.ID,
			Quantity:        decimal.NewFromInt(1),
			CreatedBy:       "storekeeper-1",
		})
		require.Error(t, err)
	})
}

func TestCorrectMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("correcting an income replays the ledger", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		first, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)
		_, err = env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(50),
			UnitCost:    decimal.NewFromInt(16),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		// the first income was actually 200, not 100
		cost := decimal.NewFromInt(10)
		replacement, err := env.service.CorrectMovement(ctx, first.ID, CorrectMovementRequest{
			Quantity:  decimal.NewFromInt(200),
			UnitCost:  &cost,
			Reason:    "quantity typo",
			CreatedBy: "storekeeper-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "200", replacement.BaseQuantity.String())

		// (200*10 + 50*16) / 250
		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		assert.Equal(t, "250", stock.Quantity.String())
		assert.Equal(t, "11.2", stock.AverageCost.String())

		original, err := env.movements.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, original.IsDeleted())

		corrected, err := env.movements.FindByID(ctx, replacement.ID)
		require.NoError(t, err)
		require.NotNil(t, corrected.CorrectsMovementID)
		assert.Equal(t, first.ID, *corrected.CorrectsMovementID)
	})

	t.Run("correcting a deleted movement fails", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		m, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(10),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		require.NoError(t, env.service.DeleteMovement(ctx, m.ID, DeleteMovementRequest{
			Reason: "duplicate entry", DeletedBy: "storekeeper-1",
		}))

		_, err = env.service.CorrectMovement(ctx, m.ID, CorrectMovementRequest{
			Quantity:  decimal.NewFromInt(5),
			Reason:    "try again",
			CreatedBy: "storekeeper-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}

func TestDeleteMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete replays the survivors", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		_, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(100),
			UnitCost:    decimal.NewFromInt(10),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)
		second, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(50),
			UnitCost:    decimal.NewFromInt(16),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		require.NoError(t, env.service.DeleteMovement(ctx, second.ID, DeleteMovementRequest{
			Reason: "duplicate entry", DeletedBy: "storekeeper-1",
		}))

		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		assert.Equal(t, "100", stock.Quantity.String())
		assert.Equal(t, "10", stock.AverageCost.String())
	})

	t.Run("delete without a reason fails closed", func(t *testing.T) {
		env := newInventoryTestEnv(t)
		product := env.seedProduct(t, "FLOUR")

		m, err := env.service.StockIncome(ctx, StockIncomeRequest{
			ProductID:   product.ID,
			WarehouseID: env.warehouse.ID,
			Quantity:    decimal.NewFromInt(10),
			UnitCost:    decimal.NewFromInt(10),
			CreatedBy:   "storekeeper-1",
		})
		require.NoError(t, err)

		err = env.service.DeleteMovement(ctx, m.ID, DeleteMovementRequest{DeletedBy: "storekeeper-1"})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}
