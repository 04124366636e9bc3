package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retail-erp/backend/internal/domain/inventory"
	"github.com/retail-erp/backend/internal/domain/shared"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new stock repository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByID finds a stock record by its ID
func (r *GormStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Stock, error) {
	var stock inventory.Stock
	err := r.db.WithContext(ctx).First(&stock, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindByProductAndWarehouse finds the stock record for a product in a warehouse
func (r *GormStockRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	var stock inventory.Stock
	err := r.db.WithContext(ctx).
		First(&stock, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// FindForUpdate loads the stock row under a row lock. Only meaningful inside
// a transaction; the lock is released on commit or rollback.
func (r *GormStockRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	var stock inventory.Stock
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stock, "product_id = ? AND warehouse_id = ?", productID, warehouseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &stock, nil
}

// GetOrCreate returns the stock record, creating an empty one if the product
// has never moved in this warehouse.
func (r *GormStockRepository) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Stock, error) {
	stock, err := r.FindForUpdate(ctx, productID, warehouseID)
	if err == nil {
		return stock, nil
	}
	if !shared.IsCode(err, shared.CodeNotFound) {
		return nil, err
	}

	fresh := inventory.NewStock(productID, warehouseID)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error
	if err != nil {
		return nil, err
	}
	// Re-read under the lock: a concurrent transaction may have won the insert.
	return r.FindForUpdate(ctx, productID, warehouseID)
}

// FindAll finds all stock records matching the filter
func (r *GormStockRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Stock, error) {
	var stocks []inventory.Stock
	query := applyFilter(r.db.WithContext(ctx).Model(&inventory.Stock{}), filter)
	if err := query.Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// FindByWarehouse returns stock records for one warehouse
func (r *GormStockRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.Stock, error) {
	var stocks []inventory.Stock
	query := r.db.WithContext(ctx).Model(&inventory.Stock{}).Where("warehouse_id = ?", warehouseID)
	if err := applyFilter(query, filter).Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// Save persists a stock record
func (r *GormStockRepository) Save(ctx context.Context, stock *inventory.Stock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

// SaveWithLock persists the record guarded by its optimistic-lock version
func (r *GormStockRepository) SaveWithLock(ctx context.Context, stock *inventory.Stock) error {
	stock.IncrementVersion()
	stock.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&inventory.Stock{}).
		Where("id = ? AND version = ?", stock.ID, stock.Version-1).
		Updates(map[string]interface{}{
			"quantity":          stock.Quantity,
			"reserved_quantity": stock.ReservedQuantity,
			"average_cost":      stock.AverageCost,
			"version":           stock.Version,
			"updated_at":        stock.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a stock record
func (r *GormStockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Stock{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts stock records matching the filter
func (r *GormStockRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := applyCountFilter(r.db.WithContext(ctx).Model(&inventory.Stock{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new stock movement repository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a movement by its ID, soft-deleted rows included
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var movement inventory.StockMovement
	err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindSurvivingByProductAndWarehouse returns non-deleted movements in
// chronological order, the input for ledger replay.
func (r *GormStockMovementRepository) FindSurvivingByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND deleted_at IS NULL", productID, warehouseID).
		Order("occurred_at asc, created_at asc").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByReference returns all movements tied to a source document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, ref inventory.DocumentRef) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("occurred_at asc, created_at asc").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByProduct returns movements for a product across warehouses
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.db.WithContext(ctx).Model(&inventory.StockMovement{}).
		Where("product_id = ?", productID)
	if err := applyFilter(query, filter).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Save persists a movement row. Used both for appending new rows and for
// stamping the soft-delete columns of existing rows.
func (r *GormStockMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Save(movement).Error
}

var _ inventory.StockRepository = (*GormStockRepository)(nil)
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
