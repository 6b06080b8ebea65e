package models

import (
	"rms/src/types"
)

type CartItem struct {
	ID         uint `gorm:"primarykey" json:"id"`
	UserID     uint `gorm:"index" json:"user_id"`
	MenuItemID uint `json:"menu_item_id"`
	Quantity   uint `gorm:"default:1" json:"quantity"`

	MenuItem MenuItem `json:"menu_item,omitempty"`

	types.Timestamps
}
