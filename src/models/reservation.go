package models

import (
	"time"

	"rms/src/types"
)

type Reservation struct {
	ID              uint                    `gorm:"primarykey" json:"id"`
	UserID          uint                    `json:"user_id"`
	TableID         *uint                   `json:"table_id,omitempty"`
	ReservationDate time.Time               `json:"reservation_date"`
	ArrivalDay      string                  `json:"arrival_day"`
	ReservationTime string                  `json:"reservation_time"`
	GuestCount      uint                    `json:"guest_count"`
	Status          types.ReservationStatus `gorm:"default:'pending'" json:"status"`

	User  User   `json:"user,omitempty"`
	Table *Table `json:"table,omitempty"`

	types.Timestamps
}
