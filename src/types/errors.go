package types

import (
	"errors"
	"net/http"
)

// Domain outcomes surfaced by the reservation and reconciliation flows.
// Handlers translate these to HTTP codes with StatusForError.
var (
	ErrTableUnavailable     = errors.New("table is not available for reservation")
	ErrCapacityExceeded     = errors.New("guest count exceeds table capacity")
	ErrOverlapConflict      = errors.New("table is already reserved for this time slot")
	ErrNotFound             = errors.New("record not found")
	ErrAlreadyCancelled     = errors.New("reservation is already cancelled")
	ErrArrivalDayOutOfRange = errors.New("arrival day must be within two days of the reservation date")
	ErrPaymentIncomplete    = errors.New("payment has not been completed")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrMalformedMetadata    = errors.New("malformed session metadata")
	ErrDuplicateCartItem    = errors.New("item is already in the cart")
	ErrCartEmpty            = errors.New("cart is empty")
)

func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrTableUnavailable),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrPaymentIncomplete),
		errors.Is(err, ErrCartEmpty):
		return http.StatusBadRequest
	case errors.Is(err, ErrOverlapConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrArrivalDayOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
