// Package option provides composable gorm query modifiers.
package option

import (
	"github.com/smallbiznis/tutorledger/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type queryOptionFunc func(stmt *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(stmt *gorm.DB) *gorm.DB {
	return f(stmt)
}

// ApplyPagination applies the cursor and page size from the request.
// One extra row is fetched so callers can detect whether more pages
// remain.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if size > 250 {
			size = 250
		}

		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil {
				if cursor.CreatedAt != "" && cursor.ID != "" {
					stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
				} else if cursor.ID != "" {
					stmt = stmt.Where("id < ?", cursor.ID)
				}
			}
		}

		return stmt.Limit(size + 1)
	})
}

// WithLimit caps the number of rows returned.
func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return stmt
		}
		return stmt.Limit(limit)
	})
}
