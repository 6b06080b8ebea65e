package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	cases := map[error]int{
		ErrTableUnavailable:     http.StatusBadRequest,
		ErrCapacityExceeded:     http.StatusBadRequest,
		ErrAlreadyCancelled:     http.StatusBadRequest,
		ErrPaymentIncomplete:    http.StatusBadRequest,
		ErrCartEmpty:            http.StatusBadRequest,
		ErrOverlapConflict:      http.StatusConflict,
		ErrNotFound:             http.StatusNotFound,
		ErrArrivalDayOutOfRange: http.StatusUnprocessableEntity,
		ErrPaymentGateway:       http.StatusInternalServerError,
		ErrMalformedMetadata:    http.StatusInternalServerError,
		errors.New("boom"):      http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusForError(err), err.Error())
	}
}

func TestStatusForWrappedError(t *testing.T) {
	err := fmt.Errorf("%w: connection refused", ErrPaymentGateway)
	assert.Equal(t, http.StatusInternalServerError, StatusForError(err))

	err = fmt.Errorf("%w: table 5", ErrOverlapConflict)
	assert.Equal(t, http.StatusConflict, StatusForError(err))
}
