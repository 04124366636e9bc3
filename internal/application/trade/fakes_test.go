package trade

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/retail-erp/backend/internal/domain/catalog"
	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/shared"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// In-memory repositories backing the NoOpTransactionScope in service tests.

type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.products)), nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByBarcode(_ context.Context, barcode string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindByIDWithUnits(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeProductRepo) SaveWithLock(ctx context.Context, p *catalog.Product) error {
	return r.Save(ctx, p)
}

type stockKey struct {
	productID   uuid.UUID
	warehouseID uuid.UUID
}

type fakeStockRepo struct {
	stocks map[stockKey]*inventory.Stock
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[stockKey]*inventory.Stock)}
}

func (r *fakeStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Stock, error) {
	for _, s := range r.stocks {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStockRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Stock, error) {
	out := make([]inventory.Stock, 0, len(r.stocks))
	for _, s := range r.stocks {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeStockRepo) Save(_ context.Context, s *inventory.Stock) error {
	r.stocks[stockKey{s.ProductID, s.WarehouseID}] = s
	return nil
}

func (r *fakeStockRepo) Delete(_ context.Context, id uuid.UUID) error {
	for k, s := range r.stocks {
		if s.ID == id {
			delete(r.stocks, k)
		}
	}
	return nil
}

func (r *fakeStockRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.stocks)), nil
}

func (r *fakeStockRepo) FindByProductAndWarehouse(_ context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	if s, ok := r.stocks[stockKey{productID, warehouseID}]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeStockRepo) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	return r.FindByProductAndWarehouse(ctx, productID, warehouseID)
}

func (r *fakeStockRepo) GetOrCreate(_ context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	key := stockKey{productID, warehouseID}
	if s, ok := r.stocks[key]; ok {
		return s, nil
	}
	s := inventory.NewStock(productID, warehouseID)
	r.stocks[key] = s
	return s, nil
}

func (r *fakeStockRepo) SaveWithLock(ctx context.Context, s *inventory.Stock) error {
	return r.Save(ctx, s)
}

func (r *fakeStockRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]inventory.Stock, error) {
	out := make([]inventory.Stock, 0)
	for _, s := range r.stocks {
		if s.WarehouseID == warehouseID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeMovementRepo struct {
	movements []*inventory.StockMovement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{}
}

func (r *fakeMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	for _, m := range r.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMovementRepo) FindSurvivingByProductAndWarehouse(_ context.Context, productID, warehouseID uuid.UUID) ([]inventory.StockMovement, error) {
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID && !m.IsDeleted() {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, ref inventory.DocumentRef) ([]inventory.StockMovement, error) {
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.Reference == ref {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) Save(_ context.Context, m *inventory.StockMovement) error {
	for i, existing := range r.movements {
		if existing.ID == m.ID {
			r.movements[i] = m
			return nil
		}
	}
	r.movements = append(r.movements, m)
	return nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*partner.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCustomerRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Customer, error) {
	out := make([]partner.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCustomerRepo) Save(_ context.Context, c *partner.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.customers, id)
	return nil
}

func (r *fakeCustomerRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.customers)), nil
}

func (r *fakeCustomerRepo) FindByPhone(_ context.Context, phone string) (*partner.Customer, error) {
	for _, c := range r.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeCustomerRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCustomerRepo) SaveWithLock(ctx context.Context, c *partner.Customer) error {
	return r.Save(ctx, c)
}

type fakeDebtRepo struct {
	rows []*partner.DebtTransaction
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{}
}

func (r *fakeDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.DebtTransaction, error) {
	for _, tx := range r.rows {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeDebtRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]partner.DebtTransaction, error) {
	out := make([]partner.DebtTransaction, 0)
	for _, tx := range r.rows {
		if tx.CustomerID == customerID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *fakeDebtRepo) FindBySource(_ context.Context, source partner.DebtSource) ([]partner.DebtTransaction, error) {
	out := make([]partner.DebtTransaction, 0)
	for _, tx := range r.rows {
		if tx.Source == source {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *fakeDebtRepo) Save(_ context.Context, tx *partner.DebtTransaction) error {
	r.rows = append(r.rows, tx)
	return nil
}

type fakeWarehouseRepo struct {
	warehouses map[uuid.UUID]*partner.Warehouse
}

func newFakeWarehouseRepo() *fakeWarehouseRepo {
	return &fakeWarehouseRepo{warehouses: make(map[uuid.UUID]*partner.Warehouse)}
}

func (r *fakeWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	if w, ok := r.warehouses[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeWarehouseRepo) FindAll(_ context.Context, _ shared.Filter) ([]partner.Warehouse, error) {
	out := make([]partner.Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		out = append(out, *w)
	}
	return out, nil
}

func (r *fakeWarehouseRepo) Save(_ context.Context, w *partner.Warehouse) error {
	r.warehouses[w.ID] = w
	return nil
}

func (r *fakeWarehouseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.warehouses, id)
	return nil
}

func (r *fakeWarehouseRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.warehouses)), nil
}

func (r *fakeWarehouseRepo) FindByCode(_ context.Context, code string) (*partner.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeSaleRepo struct {
	sales map[uuid.UUID]*trade.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*trade.Sale)}
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*trade.Sale, error) {
	if s, ok := r.sales[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]trade.Sale, error) {
	out := make([]trade.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSaleRepo) Save(_ context.Context, s *trade.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *fakeSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sales, id)
	return nil
}

func (r *fakeSaleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.sales)), nil
}

func (r *fakeSaleRepo) FindByNumber(_ context.Context, number string) (*trade.Sale, error) {
	for _, s := range r.sales {
		if s.Number == number {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) FindByIDFull(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSaleRepo) FindByCustomer(_ context.Context, customerID uuid.UUID, _ shared.Filter) ([]trade.Sale, error) {
	out := make([]trade.Sale, 0)
	for _, s := range r.sales {
		if s.CustomerID != nil && *s.CustomerID == customerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) SaveWithLock(ctx context.Context, s *trade.Sale) error {
	return r.Save(ctx, s)
}

func (r *fakeSaleRepo) SaveItems(_ context.Context, _ []trade.SaleItem) error {
	return nil
}

func (r *fakeSaleRepo) SavePayment(_ context.Context, _ *trade.Payment) error {
	return nil
}

type fakeAllocator struct {
	counters map[string]int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{counters: make(map[string]int)}
}

func (a *fakeAllocator) Next(_ context.Context, documentType string) (string, error) {
	a.counters[documentType]++
	return fmt.Sprintf("S-%06d", a.counters[documentType]), nil
}
