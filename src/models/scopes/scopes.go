package scopes

import (
	"time"

	"gorm.io/gorm"
)

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithUser(userId uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userId)
	}
}

func ActiveStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []string{"pending", "confirmed"})
}

// OverlappingWindow matches active reservations on a table whose instant
// falls inside the one hour buffer either side of the requested instant.
func OverlappingWindow(tableId uint, at time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		from := at.Add(-1 * time.Hour)
		until := at.Add(1 * time.Hour)
		return db.
			Where("table_id = ?", tableId).
			Where("reservation_date BETWEEN ? AND ?", from, until).
			Scopes(ActiveStatus)
	}
}
