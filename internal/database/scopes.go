package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/worktime-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// InMonth restricts a text date/timestamp column to a YYYY-MM prefix.
func InMonth(column, prefix string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" LIKE ?", prefix+"%")
	}
}
