package types

import (
	"encoding/json"
	"strconv"
)

// Provider-side limit for a single metadata value.
const MetadataValueLimit = 500

type CartMetadataItem struct {
	MenuItemID uint    `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   uint    `json:"qty"`
}

type CartMetadata struct {
	UserID uint
	Items  []CartMetadataItem
}

type ReservationMetadata struct {
	UserID        uint
	ReservationID uint
	TableID       uint
}

// Encode flattens the cart metadata into provider key/value pairs. The
// serialized item list must fit MetadataValueLimit; when it does not, only
// the first item is kept so the session request still goes through.
func (m CartMetadata) Encode() map[string]string {
	items := m.Items
	b, _ := json.Marshal(items)
	if len(b) > MetadataValueLimit && len(items) > 0 {
		b, _ = json.Marshal(items[:1])
	}
	return map[string]string{
		"kind":       string(CHECKOUT_CART),
		"user_id":    strconv.FormatUint(uint64(m.UserID), 10),
		"cart_items": string(b),
	}
}

func (m ReservationMetadata) Encode() map[string]string {
	return map[string]string{
		"kind":           string(CHECKOUT_RESERVATION),
		"user_id":        strconv.FormatUint(uint64(m.UserID), 10),
		"reservation_id": strconv.FormatUint(uint64(m.ReservationID), 10),
		"table_id":       strconv.FormatUint(uint64(m.TableID), 10),
	}
}

func parseUintField(md map[string]string, key string) (uint, error) {
	raw, ok := md[key]
	if !ok || raw == "" {
		return 0, ErrMalformedMetadata
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ErrMalformedMetadata
	}
	return uint(n), nil
}

// ParseCartMetadata validates and decodes the metadata bag attached to a
// cart checkout session. Every required field must be present and well
// formed before any reconciliation write happens.
func ParseCartMetadata(md map[string]string) (*CartMetadata, error) {
	if md["kind"] != string(CHECKOUT_CART) {
		return nil, ErrMalformedMetadata
	}
	userId, err := parseUintField(md, "user_id")
	if err != nil {
		return nil, err
	}
	raw, ok := md["cart_items"]
	if !ok || raw == "" {
		return nil, ErrMalformedMetadata
	}
	var items []CartMetadataItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, ErrMalformedMetadata
	}
	if len(items) == 0 {
		return nil, ErrMalformedMetadata
	}
	return &CartMetadata{UserID: userId, Items: items}, nil
}

func ParseReservationMetadata(md map[string]string) (*ReservationMetadata, error) {
	if md["kind"] != string(CHECKOUT_RESERVATION) {
		return nil, ErrMalformedMetadata
	}
	userId, err := parseUintField(md, "user_id")
	if err != nil {
		return nil, err
	}
	reservationId, err := parseUintField(md, "reservation_id")
	if err != nil {
		return nil, err
	}
	tableId, err := parseUintField(md, "table_id")
	if err != nil {
		return nil, err
	}
	return &ReservationMetadata{UserID: userId, ReservationID: reservationId, TableID: tableId}, nil
}
