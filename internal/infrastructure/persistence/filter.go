package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/retail-erp/backend/internal/domain/shared"
)

// applyFilter applies pagination, ordering and field filters to a query.
// Search is handled per-repository since the searchable columns differ.
func applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for field, value := range filter.Filters {
		query = query.Where(fmt.Sprintf("%s = ?", field), value)
	}

	if filter.OrderBy != "" {
		dir := "asc"
		if filter.OrderDir == "desc" {
			dir = "desc"
		}
		query = query.Order(fmt.Sprintf("%s %s", filter.OrderBy, dir))
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applyCountFilter applies only the field filters, for Count queries.
func applyCountFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for field, value := range filter.Filters {
		query = query.Where(fmt.Sprintf("%s = ?", field), value)
	}
	return query
}
