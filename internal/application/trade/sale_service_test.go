package trade

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
	"github.com/retail-erp/backend/internal/domain/trade"
)

type saleTestEnv struct {
	service   *SaleService
	products  *fakeProductRepo
	stocks    *fakeStockRepo
	movements *fakeMovementRepo
	customers *fakeCustomerRepo
	debts     *fakeDebtRepo
	sales     *fakeSaleRepo

	warehouse *partner.Warehouse
	clock     shared.FixedClock
}

func newSaleTestEnv(t *testing.T) *saleTestEnv {
	t.Helper()

	env := &saleTestEnv{
		products:  newFakeProductRepo(),
		stocks:    newFakeStockRepo(),
		movements: newFakeMovementRepo(),
		customers: newFakeCustomerRepo(),
		debts:     newFakeDebtRepo(),
		sales:     newFakeSaleRepo(),
		clock:     shared.FixedClock{Instant: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)},
	}

	warehouse, err := partner.NewWarehouse("MAIN", "Main warehouse")
	require.NoError(t, err)
	env.warehouse = warehouse
	warehouses := newFakeWarehouseRepo()
	warehouses.warehouses[warehouse.ID] = warehouse

	scope := &NoOpTransactionScope{
		Sales:      env.sales,
		Products:   env.products,
		Stocks:     env.stocks,
		Movements:  env.movements,
		Customers:  env.customers,
		Debts:      env.debts,
		Warehouses: warehouses,
		Allocator:  newFakeAllocator(),
	}
	env.service = NewSaleService(scope, env.clock, zap.NewNop())
	return env
}

// seedProduct registers a product with a sale price per base unit and initial
// stock received at the given cost.
func (env *saleTestEnv) seedProduct(t *testing.T, code string, salePrice, stockQty, stockCost int64) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(code, code, "kg")
	require.NoError(t, err)
	require.NoError(t, product.SetPrices(
		decimal.NewFromInt(stockCost), decimal.NewFromInt(salePrice), decimal.Zero))
	env.products.products[product.ID] = product

	if stockQty > 0 {
		stock := inventory.NewStock(product.ID, env.warehouse.ID)
		require.NoError(t, stock.Add(decimal.NewFromInt(stockQty), decimal.NewFromInt(stockCost)))
		env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}] = stock
	}
	return product
}

func (env *saleTestEnv) seedCustomer(t *testing.T, creditLimit int64, vip bool) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer("Aziz Karimov", "+998901234567")
	require.NoError(t, err)
	require.NoError(t, customer.SetCreditLimit(decimal.NewFromInt(creditLimit)))
	customer.SetVIP(vip)
	env.customers.customers[customer.ID] = customer
	return customer
}

func intPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateSale(t *testing.T) {
	ctx := context.Background()

	t.Run("checkout with counter price allocates the discount across lines", func(t *testing.T) {
		env := newSaleTestEnv(t)
		cement := env.seedProduct(t, "CEMENT", 500000, 100, 400000)
		rebar := env.seedProduct(t, "REBAR", 500000, 100, 400000)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: cement.ID, Quantity: decimal.NewFromInt(4)},
				{ProductID: rebar.ID, Quantity: decimal.NewFromInt(3)},
			},
			FinalPrice: intPtr(3000000),
			Payments: []PaymentRequest{
				{Method: trade.PaymentMethodCash, Amount: decimal.NewFromInt(3000000)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)

		assert.Equal(t, trade.SaleStatusPaid, resp.Status)
		assert.Equal(t, "3500000.00", resp.Subtotal.StringFixed(2))
		assert.Equal(t, "3000000.00", resp.Total.StringFixed(2))
		assert.Equal(t, "14.29", resp.DiscountPercent.StringFixed(2))
		require.Len(t, resp.Items, 2)
		assert.Equal(t, "285800.00", resp.Items[0].DiscountAmount.StringFixed(2))
		assert.Equal(t, "214200.00", resp.Items[1].DiscountAmount.StringFixed(2))

		// stock left and the ledger recorded it against the sale
		stock := env.stocks.stocks[stockKey{cement.ID, env.warehouse.ID}]
		assert.Equal(t, "96", stock.Quantity.String())
		movements, err := env.movements.FindByReference(ctx, inventory.RefSale(resp.ID))
		require.NoError(t, err)
		assert.Len(t, movements, 2)
		assert.Equal(t, "400000", movements[0].UnitCost.String())
	})

	t.Run("alternate unit converts before the stock check", func(t *testing.T) {
		env := newSaleTestEnv(t)
		cement := env.seedProduct(t, "CEMENT", 3500, 1500, 3000)
		tonna, err := catalog.NewProductUnit(cement.ID, "tonna", "Tonna", decimal.NewFromInt(1000))
		require.NoError(t, err)
		cement.Units = append(cement.Units, *tonna)

		_, err = env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: cement.ID, Quantity: decimal.NewFromInt(2), UnitCode: "tonna"},
			},
			CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))
	})

	t.Run("unknown unit fails with UNIT_NOT_CONFIGURED", func(t *testing.T) {
		env := newSaleTestEnv(t)
		cement := env.seedProduct(t, "CEMENT", 3500, 100, 3000)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: cement.ID, Quantity: decimal.NewFromInt(1), UnitCode: "tonna"},
			},
			CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeUnitNotConfigured))
	})

	t.Run("price resolution order", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "SUGAR", 10000, 100, 8000)
		product.VIPPrice = decimal.NewFromInt(9000)
		customer := env.seedCustomer(t, 0, true)

		t.Run("VIP price beats catalog price", func(t *testing.T) {
			resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
				CustomerID:  &customer.ID,
				WarehouseID: env.warehouse.ID,
				Items: []CreateSaleItemRequest{
					{ProductID: product.ID, Quantity: decimal.NewFromInt(1)},
				},
				CreatedBy: "operator-1",
			})
			require.NoError(t, err)
			assert.Equal(t, "9000.0000", resp.Items[0].OriginalPrice.StringFixed(4))
		})

		t.Run("override beats VIP price", func(t *testing.T) {
			resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
				CustomerID:  &customer.ID,
				WarehouseID: env.warehouse.ID,
				Items: []CreateSaleItemRequest{
					{ProductID: product.ID, Quantity: decimal.NewFromInt(1), PriceOverride: intPtr(8500)},
				},
				CreatedBy: "operator-1",
			})
			require.NoError(t, err)
			assert.Equal(t, "8500.0000", resp.Items[0].OriginalPrice.StringFixed(4))
		})
	})

	t.Run("unpaid remainder booked as customer debt", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 100000, false)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(5)},
			},
			Payments: []PaymentRequest{
				{Method: trade.PaymentMethodCash, Amount: decimal.NewFromInt(20000)},
			},
			BookRemainderAsDebt: true,
			CreatedBy:           "operator-1",
		})
		require.NoError(t, err)

		assert.Equal(t, trade.SaleStatusDebt, resp.Status)
		assert.Equal(t, "30000.00", resp.DebtTotal.StringFixed(2))
		assert.Equal(t, "30000", customer.CurrentDebt.String())
		assert.Equal(t, 1, customer.PurchaseCount)

		rows, err := env.debts.FindBySource(ctx, partner.DebtSourceSale(resp.ID))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].BalanceBefore.IsZero())
		assert.Equal(t, "30000", rows[0].BalanceAfter.String())
	})

	t.Run("debt beyond the credit limit aborts the checkout", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 10000, false)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(5)},
			},
			BookRemainderAsDebt: true,
			CreatedBy:           "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeCreditLimitExceeded))
	})

	t.Run("booking debt without a customer is rejected", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(1)},
			},
			BookRemainderAsDebt: true,
			CreatedBy:           "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("negative stock allowed when the product opts in", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "SAND", 1000, 5, 500)
		product.SetAllowNegativeStock(true)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(8)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusPending, resp.Status)

		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		assert.Equal(t, "-3", stock.Quantity.String())
	})

	t.Run("advance payment draws down the customer's advance balance", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 0, false)
		require.NoError(t, customer.PayDebt(decimal.NewFromInt(50000)))
		require.Equal(t, "50000", customer.AdvanceBalance.String())

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
			},
			Payments: []PaymentRequest{
				{Method: trade.PaymentMethodAdvance, Amount: decimal.NewFromInt(20000)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)

		assert.Equal(t, trade.SaleStatusPaid, resp.Status)
		assert.Equal(t, "30000", customer.AdvanceBalance.String())
	})

	t.Run("advance payment beyond the balance is rejected", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 0, false)
		require.NoError(t, customer.PayDebt(decimal.NewFromInt(5000)))

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
			},
			Payments: []PaymentRequest{
				{Method: trade.PaymentMethodAdvance, Amount: decimal.NewFromInt(20000)},
			},
			CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("advance payment without a customer is rejected", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(1)},
			},
			Payments: []PaymentRequest{
				{Method: trade.PaymentMethodAdvance, Amount: decimal.NewFromInt(10000)},
			},
			CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("delivery cost lands on top of the discounted total", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "CEMENT", 100000, 100, 80000)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(10)},
			},
			FinalPrice:   intPtr(950000),
			DeliveryCost: decimal.NewFromInt(40000),
			CreatedBy:    "operator-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "1000000.00", resp.Subtotal.StringFixed(2))
		assert.Equal(t, "50000.00", resp.DiscountTotal.StringFixed(2))
		assert.Equal(t, "40000.00", resp.DeliveryCost.StringFixed(2))
		// subtotal - discount + delivery
		assert.Equal(t, "990000.00", resp.Total.StringFixed(2))
	})

	t.Run("rejected checkout does not consume a sale number", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "CEMENT", 3500, 5, 3000)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(10)},
			},
			CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(5)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "S-000001", resp.Number)
	})

	t.Run("setting both final price and discount is rejected", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "SAND", 1000, 5, 500)

		_, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(1)},
			},
			FinalPrice:     intPtr(900),
			DiscountAmount: intPtr(100),
			CreatedBy:      "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestCancelSale(t *testing.T) {
	ctx := context.Background()

	checkout := func(t *testing.T, env *saleTestEnv, customer *partner.Customer, product *catalog.Product) *SaleResponse {
		t.Helper()
		req := CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(5)},
			},
			BookRemainderAsDebt: customer != nil,
			CreatedBy:           "operator-1",
		}
		if customer != nil {
			req.CustomerID = &customer.ID
		}
		resp, err := env.service.CreateSale(ctx, req)
		require.NoError(t, err)
		return resp
	}

	t.Run("restocks every line at the cost it left with", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		resp := checkout(t, env, nil, product)

		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		require.Equal(t, "95", stock.Quantity.String())

		_, err := env.service.CancelSale(ctx, resp.ID, CancelSaleRequest{
			CancelledBy: "manager-1", Reason: "customer returned the goods", Restock: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "100", stock.Quantity.String())
		assert.Equal(t, "8000.00", stock.AverageCost.StringFixed(2))

		movements, err := env.movements.FindByReference(ctx, inventory.RefSale(resp.ID))
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementTypeReturn, movements[1].Type)
	})

	t.Run("cancel without restock leaves the stock alone", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		resp := checkout(t, env, nil, product)

		stock := env.stocks.stocks[stockKey{product.ID, env.warehouse.ID}]
		require.Equal(t, "95", stock.Quantity.String())

		_, err := env.service.CancelSale(ctx, resp.ID, CancelSaleRequest{
			CancelledBy: "manager-1", Reason: "goods spoiled in transit",
		})
		require.NoError(t, err)

		assert.Equal(t, "95", stock.Quantity.String())
		// only the outbound sale movement, no return
		movements, err := env.movements.FindByReference(ctx, inventory.RefSale(resp.ID))
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, inventory.MovementTypeSale, movements[0].Type)
	})

	t.Run("reverses the debt the sale created", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 100000, false)
		resp := checkout(t, env, customer, product)
		require.Equal(t, "50000", customer.CurrentDebt.String())

		_, err := env.service.CancelSale(ctx, resp.ID, CancelSaleRequest{
			CancelledBy: "manager-1", Reason: "entry error",
		})
		require.NoError(t, err)

		assert.True(t, customer.CurrentDebt.IsZero())
		rows, err := env.debts.FindBySource(ctx, partner.DebtSourceSale(resp.ID))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, partner.DebtTransactionTypeReversal, rows[1].Type)
	})

	t.Run("second cancel fails with ALREADY_CANCELLED", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		resp := checkout(t, env, nil, product)

		_, err := env.service.CancelSale(ctx, resp.ID, CancelSaleRequest{
			CancelledBy: "manager-1", Reason: "first",
		})
		require.NoError(t, err)

		_, err = env.service.CancelSale(ctx, resp.ID, CancelSaleRequest{
			CancelledBy: "manager-1", Reason: "second",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyCancelled))
	})
}

func TestAddPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("later payment settles a pending sale", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		require.Equal(t, trade.SaleStatusPending, resp.Status)

		resp, err = env.service.AddPayment(ctx, resp.ID, AddPaymentRequest{
			Method: trade.PaymentMethodCard, Amount: decimal.NewFromInt(20000), CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusPaid, resp.Status)
	})

	t.Run("later advance payment draws down the balance", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 0, false)
		require.NoError(t, customer.PayDebt(decimal.NewFromInt(30000)))

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
			},
			CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		require.Equal(t, trade.SaleStatusPending, resp.Status)

		resp, err = env.service.AddPayment(ctx, resp.ID, AddPaymentRequest{
			Method: trade.PaymentMethodAdvance, Amount: decimal.NewFromInt(20000), CreatedBy: "operator-1",
		})
		require.NoError(t, err)
		assert.Equal(t, trade.SaleStatusPaid, resp.Status)
		assert.Equal(t, "10000", customer.AdvanceBalance.String())
	})

	t.Run("debt-booked sales settle through the ledger instead", func(t *testing.T) {
		env := newSaleTestEnv(t)
		product := env.seedProduct(t, "FLOUR", 10000, 100, 8000)
		customer := env.seedCustomer(t, 100000, false)

		resp, err := env.service.CreateSale(ctx, CreateSaleRequest{
			CustomerID:  &customer.ID,
			WarehouseID: env.warehouse.ID,
			Items: []CreateSaleItemRequest{
				{ProductID: product.ID, Quantity: decimal.NewFromInt(2)},
			},
			BookRemainderAsDebt: true,
			CreatedBy:           "operator-1",
		})
		require.NoError(t, err)

		_, err = env.service.AddPayment(ctx, resp.ID, AddPaymentRequest{
			Method: trade.PaymentMethodCash, Amount: decimal.NewFromInt(1000), CreatedBy: "operator-1",
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}
