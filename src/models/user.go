package models

import (
	"rms/src/types"
)

type User struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	Name          string `json:"name,omitempty"`
	Email         string `gorm:"uniqueIndex" json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`

	Reservations []Reservation `gorm:"foreignKey:user_id" json:"reservations,omitempty"`
	CartItems    []CartItem    `gorm:"foreignKey:user_id" json:"cart_items,omitempty"`

	types.Timestamps
}
