package models

import (
	"time"

	"rms/src/types"
)

// Checkout is the local record of a settled checkout session. The unique
// index on session_id is the authoritative dedupe for reconciliation.
type Checkout struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	UserID          uint                `json:"user_id"`
	Kind            types.CheckoutKind  `json:"kind"`
	ReferenceID     string              `json:"reference_id,omitempty"`
	SessionID       string              `gorm:"uniqueIndex" json:"session_id"`
	PaymentIntentID *string             `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	AmountTotal     int64               `json:"amount_total"`
	Currency        string              `json:"currency"`
	PaymentStatus   types.PaymentStatus `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	PaymentDate     *time.Time          `json:"payment_date,omitempty"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CustomerName    string              `json:"customer_name,omitempty"`
	ReservationID   *uint               `json:"reservation_id,omitempty"`
	Metadata        types.JSONB         `gorm:"type:jsonb" json:"metadata,omitempty"`

	User        User           `json:"user,omitempty"`
	Reservation *Reservation   `json:"reservation,omitempty"`
	Items       []CheckoutItem `gorm:"foreignKey:checkout_id" json:"items,omitempty"`

	types.Timestamps
}
