package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retail-erp/backend/internal/domain/partner"
	"github.com/retail-erp/backend/internal/domain/shared"
)

// GormCustomerRepository implements partner.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new customer repository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindByPhone finds a customer by phone number
func (r *GormCustomerRepository) FindByPhone(ctx context.Context, phone string) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).First(&customer, "phone = ?", phone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindForUpdate loads the customer under a row lock so concurrent debt
// mutations serialize inside the enclosing transaction.
func (r *GormCustomerRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var customer partner.Customer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&customer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// FindAll finds all customers matching the filter
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	var customers []partner.Customer
	query := r.db.WithContext(ctx).Model(&partner.Customer{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
	}
	if err := applyFilter(query, filter).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// Save persists a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// SaveWithLock persists the customer guarded by its optimistic-lock version
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	customer.IncrementVersion()
	customer.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&partner.Customer{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version-1).
		Updates(map[string]interface{}{
			"name":             customer.Name,
			"phone":            customer.Phone,
			"is_vip":           customer.IsVIP,
			"credit_limit":     customer.CreditLimit,
			"current_debt":     customer.CurrentDebt,
			"advance_balance":  customer.AdvanceBalance,
			"purchase_count":   customer.PurchaseCount,
			"purchase_total":   customer.PurchaseTotal,
			"last_purchase_at": customer.LastPurchaseAt,
			"version":          customer.Version,
			"updated_at":       customer.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a customer
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Customer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts customers matching the filter
func (r *GormCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&partner.Customer{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
	}
	if err := applyCountFilter(query, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormDebtTransactionRepository implements partner.DebtTransactionRepository using GORM
type GormDebtTransactionRepository struct {
	db *gorm.DB
}

// NewGormDebtTransactionRepository creates a new debt transaction repository
func NewGormDebtTransactionRepository(db *gorm.DB) *GormDebtTransactionRepository {
	return &GormDebtTransactionRepository{db: db}
}

// FindByID finds a ledger row by its ID
func (r *GormDebtTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.DebtTransaction, error) {
	var tx partner.DebtTransaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByCustomer returns the customer's ledger in chronological order
func (r *GormDebtTransactionRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]partner.DebtTransaction, error) {
	var txs []partner.DebtTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at asc, created_at asc").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// FindBySource returns ledger rows tied to a source document
func (r *GormDebtTransactionRepository) FindBySource(ctx context.Context, source partner.DebtSource) ([]partner.DebtTransaction, error) {
	var txs []partner.DebtTransaction
	err := r.db.WithContext(ctx).
		Where("source_kind = ? AND source_id = ?", source.Kind, source.ID).
		Order("occurred_at asc, created_at asc").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Save appends a ledger row
func (r *GormDebtTransactionRepository) Save(ctx context.Context, tx *partner.DebtTransaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// GormWarehouseRepository implements partner.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new warehouse repository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// FindByCode finds a warehouse by its unique code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*partner.Warehouse, error) {
	var warehouse partner.Warehouse
	err := r.db.WithContext(ctx).First(&warehouse, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// FindAll finds all warehouses matching the filter
func (r *GormWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, error) {
	var warehouses []partner.Warehouse
	query := applyFilter(r.db.WithContext(ctx).Model(&partner.Warehouse{}), filter)
	if err := query.Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// Save persists a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *partner.Warehouse) error {
	return r.db.WithContext(ctx).Save(warehouse).Error
}

// Delete removes a warehouse
func (r *GormWarehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Warehouse{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts warehouses matching the filter
func (r *GormWarehouseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyCountFilter(r.db.WithContext(ctx).Model(&partner.Warehouse{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
var _ partner.DebtTransactionRepository = (*GormDebtTransactionRepository)(nil)
var _ partner.WarehouseRepository = (*GormWarehouseRepository)(nil)
