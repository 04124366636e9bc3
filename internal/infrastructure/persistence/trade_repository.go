package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retail-erp/backend/internal/domain/shared"
	"github.com/retail-erp/backend/internal/domain/trade"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new sale repository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID without loading items or payments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var sale trade.Sale
	err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByNumber finds a sale by its document number
func (r *GormSaleRepository) FindByNumber(ctx context.Context, number string) (*trade.Sale, error) {
	var sale trade.Sale
	err := r.db.WithContext(ctx).First(&sale, "number = ?", number).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByIDFull loads the sale with its items and payments
func (r *GormSaleRepository) FindByIDFull(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var sale trade.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sale_items.created_at asc")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.paid_at asc")
		}).
		First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll finds all sales matching the filter
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	var sales []trade.Sale
	query := r.db.WithContext(ctx).Model(&trade.Sale{})
	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}
	if err := applyFilter(query, filter).Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindByCustomer returns sales for one customer
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]trade.Sale, error) {
	var sales []trade.Sale
	query := r.db.WithContext(ctx).Model(&trade.Sale{}).
		Where("customer_id = ?", customerID)
	if err := applyFilter(query, filter).Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Save persists the sale header only; items and payments are written
// through SaveItems and SavePayment.
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	return r.db.WithContext(ctx).Omit("Items", "Payments").Save(sale).Error
}

// SaveWithLock persists the sale header guarded by its optimistic-lock version
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	sale.IncrementVersion()
	sale.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&trade.Sale{}).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Updates(map[string]interface{}{
			"status":           sale.Status,
			"subtotal":         sale.Subtotal,
			"discount_total":   sale.DiscountTotal,
			"discount_percent": sale.DiscountPercent,
			"delivery_cost":    sale.DeliveryCost,
			"total":            sale.Total,
			"paid_total":       sale.PaidTotal,
			"debt_total":       sale.DebtTotal,
			"cancelled_at":     sale.CancelledAt,
			"cancelled_by":     sale.CancelledBy,
			"cancel_reason":    sale.CancelReason,
			"version":          sale.Version,
			"updated_at":       sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveItems persists sale lines
func (r *GormSaleRepository) SaveItems(ctx context.Context, items []trade.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&items).Error
}

// SavePayment appends a payment row
func (r *GormSaleRepository) SavePayment(ctx context.Context, payment *trade.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// Delete removes a sale together with its lines and payments
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.SaleItem{}, "sale_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&trade.Payment{}, "sale_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&trade.Sale{})
	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}
	if err := applyCountFilter(query, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
