package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ReservationStatus string
type TableStatus string
type PaymentStatus string
type CheckoutKind string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"

	TABLE_ACTIVE      TableStatus = "active"
	TABLE_MAINTENANCE TableStatus = "maintenance"
	TABLE_RESERVED    TableStatus = "reserved"
	TABLE_INACTIVE    TableStatus = "inactive"

	PAYMENT_PENDING    PaymentStatus = "pending"
	PAYMENT_PROCESSING PaymentStatus = "processing"
	PAYMENT_SUCCEEDED  PaymentStatus = "succeeded"
	PAYMENT_FAILED     PaymentStatus = "failed"
	PAYMENT_REFUNDED   PaymentStatus = "refunded"
	PAYMENT_CANCELED   PaymentStatus = "canceled"
	PAYMENT_PAID       PaymentStatus = "paid"

	CHECKOUT_CART        CheckoutKind = "cart"
	CHECKOUT_RESERVATION CheckoutKind = "reservation"
)

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type CreateReservationRequestBody struct {
	ReservationDate string `json:"reservation_date" binding:"required,futuredate"`
	ArrivalDay      string `json:"arrival_day" binding:"required,weekday"`
	ReservationTime string `json:"reservation_time" binding:"required,clocktime"`
	GuestCount      uint   `json:"guest_count" binding:"required,min=1,max=50"`
}

// ReservationAt combines the date and clock fields into one instant.
// Both fields must already be validated.
func (b CreateReservationRequestBody) ReservationAt(loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", b.ReservationDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse("15:04", b.ReservationTime)
	if err != nil {
		return time.Time{}, err
	}
	at := date.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	return at, nil
}

type AddCartItemRequestBody struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   uint `json:"quantity" binding:"required,min=1"`
}

type CreateReservationCheckoutRequestBody struct {
	ReservationID uint    `json:"reservation_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	Currency      string  `json:"currency,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

// ReconciliationResult is the payload returned after a settled checkout
// session has been recorded locally.
type ReconciliationResult struct {
	CheckoutID    uint          `json:"checkout_id"`
	SessionID     string        `json:"session_id"`
	Kind          CheckoutKind  `json:"kind"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	AmountTotal   int64         `json:"amount_total"`
	Currency      string        `json:"currency"`
	ReservationID *uint         `json:"reservation_id,omitempty"`
	ReceiptRef    *string       `json:"receipt_ref,omitempty"`
	AlreadyKnown  bool          `json:"already_known"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
