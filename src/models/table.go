package models

import (
	"rms/src/types"
)

type Table struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	Name         string            `json:"name"`
	TableNumber  uint              `gorm:"uniqueIndex" json:"table_number"`
	Capacity     uint              `json:"capacity"`
	MinGuests    uint              `json:"min_guests"`
	MaxGuests    uint              `json:"max_guests"`
	IsAvailable  bool              `gorm:"default:true" json:"is_available"`
	IsReservable bool              `gorm:"default:true" json:"is_reservable"`
	Status       types.TableStatus `gorm:"default:'active'" json:"status"`

	Reservations []Reservation `gorm:"foreignKey:table_id" json:"reservations,omitempty"`

	types.Timestamps
}
