package models

import (
	"rms/src/types"
)

type CheckoutItem struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	CheckoutID uint    `gorm:"index" json:"checkout_id"`
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   uint    `json:"quantity"`

	types.Timestamps
}
