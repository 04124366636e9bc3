package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-erp/backend/internal/domain/shared"
)

func newDraftSale(t *testing.T) *Sale {
	t.Helper()
	sale, err := NewSale("S-000042", nil, uuid.New(), "operator-1", time.Now())
	require.NoError(t, err)
	return sale
}

func newItem(name string, qty, price int64) SaleItem {
	return SaleItem{
		ID:            uuid.New(),
		ProductID:     uuid.New(),
		ProductName:   name,
		Quantity:      decimal.NewFromInt(qty),
		UnitCode:      "dona",
		Factor:        decimal.NewFromInt(1),
		BaseQuantity:  decimal.NewFromInt(qty),
		OriginalPrice: decimal.NewFromInt(price),
		CreatedAt:     time.Now(),
	}
}

func TestSaleApplyDiscount(t *testing.T) {
	t.Run("totals obey the conservation invariant", func(t *testing.T) {
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 4, 500000)))
		require.NoError(t, sale.AddItem(newItem("Rebar", 3, 500000)))

		require.NoError(t, sale.ApplyDiscount(decimal.NewFromInt(500000)))

		assert.Equal(t, "3500000.00", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "3000000.00", sale.Total.StringFixed(2))
		assert.Equal(t, "14.29", sale.DiscountPercent.StringFixed(2))

		sumDiscounts := decimal.Zero
		sumTotals := decimal.Zero
		for _, item := range sale.Items {
			sumDiscounts = sumDiscounts.Add(item.DiscountAmount)
			sumTotals = sumTotals.Add(item.TotalPrice)
		}
		assert.True(t, sumDiscounts.Equal(sale.DiscountTotal))
		assert.True(t, sumTotals.Equal(sale.Total))
	})

	t.Run("delivery cost is added after the discount", func(t *testing.T) {
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 10, 100000)))
		require.NoError(t, sale.SetDeliveryCost(decimal.NewFromInt(40000)))

		require.NoError(t, sale.ApplyDiscount(decimal.NewFromInt(50000)))

		assert.Equal(t, "1000000.00", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "990000.00", sale.Total.StringFixed(2))
	})

	t.Run("delivery cost cannot be negative", func(t *testing.T) {
		sale := newDraftSale(t)
		err := sale.SetDeliveryCost(decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("cannot apply discount after confirmation", func(t *testing.T) {
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 1, 1000)))
		require.NoError(t, sale.ApplyDiscount(decimal.Zero))
		require.NoError(t, sale.Confirm())

		err := sale.ApplyDiscount(decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}

func TestSaleStatusDerivation(t *testing.T) {
	confirmedSale := func(t *testing.T) *Sale {
		t.Helper()
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 1, 1000)))
		require.NoError(t, sale.ApplyDiscount(decimal.Zero))
		require.NoError(t, sale.Confirm())
		return sale
	}

	t.Run("confirmed with no payment is pending", func(t *testing.T) {
		sale := confirmedSale(t)
		assert.Equal(t, SaleStatusPending, sale.Status)
	})

	t.Run("partial payment", func(t *testing.T) {
		sale := confirmedSale(t)
		require.NoError(t, sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(400), time.Now(), "operator-1"))
		assert.Equal(t, SaleStatusPartial, sale.Status)
	})

	t.Run("full payment", func(t *testing.T) {
		sale := confirmedSale(t)
		require.NoError(t, sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(1000), time.Now(), "operator-1"))
		assert.Equal(t, SaleStatusPaid, sale.Status)
		assert.True(t, sale.Outstanding().IsZero())
	})

	t.Run("remainder booked as debt", func(t *testing.T) {
		sale := confirmedSale(t)
		require.NoError(t, sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(400), time.Now(), "operator-1"))
		require.NoError(t, sale.RecordDebt(decimal.NewFromInt(600)))
		assert.Equal(t, SaleStatusDebt, sale.Status)
		assert.True(t, sale.Outstanding().IsZero())
	})

	t.Run("payment above outstanding is rejected", func(t *testing.T) {
		sale := confirmedSale(t)
		err := sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(1001), time.Now(), "operator-1")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("debt above outstanding is rejected", func(t *testing.T) {
		sale := confirmedSale(t)
		require.NoError(t, sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(800), time.Now(), "operator-1"))
		err := sale.RecordDebt(decimal.NewFromInt(300))
		require.Error(t, err)
	})

	t.Run("payment on a draft is rejected", func(t *testing.T) {
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 1, 1000)))
		err := sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(100), time.Now(), "operator-1")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidState))
	})
}

func TestSaleCancel(t *testing.T) {
	t.Run("cancel requires actor and reason", func(t *testing.T) {
		sale := newDraftSale(t)
		now := time.Now()

		assert.Error(t, sale.Cancel("", "customer walked away", now))
		assert.Error(t, sale.Cancel("operator-1", "", now))
		assert.False(t, sale.IsCancelled())

		require.NoError(t, sale.Cancel("operator-1", "customer walked away", now))
		assert.True(t, sale.IsCancelled())
		assert.Equal(t, "operator-1", sale.CancelledBy)
	})

	t.Run("second cancel fails with ALREADY_CANCELLED", func(t *testing.T) {
		sale := newDraftSale(t)
		now := time.Now()
		require.NoError(t, sale.Cancel("operator-1", "mistake", now))

		err := sale.Cancel("operator-1", "again", now)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyCancelled))
	})

	t.Run("cancelled sale rejects payments and debt", func(t *testing.T) {
		sale := newDraftSale(t)
		require.NoError(t, sale.AddItem(newItem("Cement", 1, 1000)))
		require.NoError(t, sale.ApplyDiscount(decimal.Zero))
		require.NoError(t, sale.Confirm())
		require.NoError(t, sale.Cancel("operator-1", "mistake", time.Now()))

		err := sale.AddPayment(PaymentMethodCash, decimal.NewFromInt(100), time.Now(), "operator-1")
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyCancelled))

		err = sale.RecordDebt(decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeAlreadyCancelled))
	})
}
