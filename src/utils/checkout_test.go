package utils

import (
	"context"
	"testing"

	"rms/src/db"
	"rms/src/lib"
	"rms/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeGateway struct {
	snap      *lib.SessionSnapshot
	url       string
	err       error
	lastInput *lib.CreateSessionInput
}

func (f *fakeGateway) CreateSession(ctx context.Context, input *lib.CreateSessionInput) (*lib.SessionSnapshot, string, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, "", f.err
	}
	return f.snap, f.url, nil
}

func (f *fakeGateway) RetrieveSession(ctx context.Context, sessionId string) (*lib.SessionSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeMailer struct {
	sent []*lib.SendMailInput
}

func (f *fakeMailer) SendMail(input *lib.SendMailInput) error {
	f.sent = append(f.sent, input)
	return nil
}

func settledSnapshot(sessionId string, md map[string]string) *lib.SessionSnapshot {
	return &lib.SessionSnapshot{
		ID:                 sessionId,
		Status:             "complete",
		PaymentStatus:      "paid",
		AmountTotal:        2500,
		Currency:           "usd",
		CustomerEmail:      "guest@example.com",
		CustomerName:       "Guest",
		PaymentIntentID:    "pi_123",
		PaymentMethodTypes: []string{"card"},
		Metadata:           md,
	}
}

func checkoutRows(id uint, sessionId string, kind string) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "user_id", "kind", "session_id", "payment_status", "amount_total", "currency"}).
		AddRow(id, 1, kind, sessionId, "paid", 2500, "usd")
}

func TestCreateCartCheckoutEmptyCart(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	lib.NewCheckoutGateway(&fakeGateway{})

	mock.ExpectQuery(`SELECT (.+) FROM "cart_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := CreateCartCheckout(1)
	assert.ErrorIs(t, err, types.ErrCartEmpty)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateCartCheckout(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	gw := &fakeGateway{snap: settledSnapshot("cs_test_1", nil), url: "https://pay.example.com/cs_test_1"}
	lib.NewCheckoutGateway(gw)

	mock.ExpectQuery(`SELECT (.+) FROM "cart_items"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "menu_item_id", "quantity"}).
			AddRow(1, 1, 11, 2).
			AddRow(2, 1, 12, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "menu_items"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "description", "image_url", "price"}).
			AddRow(11, "Margherita", "wood fired", "", 12.5).
			AddRow(12, "Tiramisu", "", "", 6.0))

	sessionId, url, err := CreateCartCheckout(1)
	assert.Nil(t, err)
	assert.Equal(t, "cs_test_1", *sessionId)
	assert.Equal(t, "https://pay.example.com/cs_test_1", *url)
	assert.Len(t, gw.lastInput.LineItems, 2)
	assert.Equal(t, int64(1250), gw.lastInput.LineItems[0].UnitAmount)
	assert.Equal(t, "cart", gw.lastInput.Metadata["kind"])
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateCartCheckoutRoundsUnitAmount(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	gw := &fakeGateway{snap: settledSnapshot("cs_test_r", nil), url: "https://pay.example.com/cs_test_r"}
	lib.NewCheckoutGateway(gw)

	// 19.99*100 is 1998.9999... in float64; the amount must round, not truncate
	mock.ExpectQuery(`SELECT (.+) FROM "cart_items"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "user_id", "menu_item_id", "quantity"}).
			AddRow(1, 1, 11, 1).
			AddRow(2, 1, 12, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "menu_items"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "name", "description", "image_url", "price"}).
			AddRow(11, "Carbonara", "", "", 19.99).
			AddRow(12, "Espresso", "", "", 4.35))

	_, _, err := CreateCartCheckout(1)
	assert.Nil(t, err)
	assert.Equal(t, int64(1999), gw.lastInput.LineItems[0].UnitAmount)
	assert.Equal(t, int64(435), gw.lastInput.LineItems[1].UnitAmount)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateReservationCheckout(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	gw := &fakeGateway{snap: settledSnapshot("cs_test_2", nil), url: "https://pay.example.com/cs_test_2"}
	lib.NewCheckoutGateway(gw)

	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRows(42, 5, "pending"))

	params := &types.CreateReservationCheckoutRequestBody{
		ReservationID: 42,
		Name:          "Table reservation",
		Price:         19.99,
	}
	sessionId, url, err := CreateReservationCheckout(1, params)
	assert.Nil(t, err)
	assert.Equal(t, "cs_test_2", *sessionId)
	assert.NotNil(t, url)
	assert.Equal(t, int64(1999), gw.lastInput.LineItems[0].UnitAmount)
	assert.Equal(t, "reservation", gw.lastInput.Metadata["kind"])
	assert.Equal(t, "42", gw.lastInput.Metadata["reservation_id"])
	assert.Equal(t, "5", gw.lastInput.Metadata["table_id"])
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateReservationCheckoutCancelled(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	lib.NewCheckoutGateway(&fakeGateway{})

	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRows(42, 5, "cancelled"))

	params := &types.CreateReservationCheckoutRequestBody{ReservationID: 42, Name: "Table reservation", Price: 25}
	_, _, err := CreateReservationCheckout(1, params)
	assert.ErrorIs(t, err, types.ErrAlreadyCancelled)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyAndReconcileIncompletePayment(t *testing.T) {
	d, _ := NewMockDB()
	db.NewDB(d)
	snap := settledSnapshot("cs_test_3", nil)
	snap.PaymentStatus = "unpaid"
	snap.Status = "open"
	lib.NewCheckoutGateway(&fakeGateway{snap: snap})

	_, err := VerifyAndReconcile(context.Background(), "cs_test_3", types.CHECKOUT_CART)
	assert.ErrorIs(t, err, types.ErrPaymentIncomplete)
}

func TestVerifyAndReconcileGatewayError(t *testing.T) {
	d, _ := NewMockDB()
	db.NewDB(d)
	lib.NewCheckoutGateway(&fakeGateway{err: types.ErrPaymentGateway})

	_, err := VerifyAndReconcile(context.Background(), "cs_test_4", types.CHECKOUT_CART)
	assert.ErrorIs(t, err, types.ErrPaymentGateway)
}

func TestVerifyAndReconcileIdempotent(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	md := types.ReservationMetadata{UserID: 1, ReservationID: 42, TableID: 5}.Encode()
	lib.NewCheckoutGateway(&fakeGateway{snap: settledSnapshot("cs_test_5", md)})

	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(checkoutRows(7, "cs_test_5", "reservation"))

	result, err := VerifyAndReconcile(context.Background(), "cs_test_5", types.CHECKOUT_RESERVATION)
	assert.Nil(t, err)
	assert.True(t, result.AlreadyKnown)
	assert.Equal(t, uint(7), result.CheckoutID)
	assert.NotNil(t, result.ReceiptRef)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyAndReconcileMalformedMetadata(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	lib.NewCheckoutGateway(&fakeGateway{snap: settledSnapshot("cs_test_6", map[string]string{"kind": "cart"})})

	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := VerifyAndReconcile(context.Background(), "cs_test_6", types.CHECKOUT_CART)
	assert.ErrorIs(t, err, types.ErrMalformedMetadata)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyAndReconcileCartOrder(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	md := types.CartMetadata{
		UserID: 1,
		Items: []types.CartMetadataItem{
			{MenuItemID: 11, Name: "Margherita", Price: 12.5, Quantity: 2},
		},
	}.Encode()
	lib.NewCheckoutGateway(&fakeGateway{snap: settledSnapshot("cs_test_7", md)})

	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectQuery(`INSERT INTO "checkout_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "cart_items" SET "deleted_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := VerifyAndReconcile(context.Background(), "cs_test_7", types.CHECKOUT_CART)
	assert.Nil(t, err)
	assert.False(t, result.AlreadyKnown)
	assert.Equal(t, uint(8), result.CheckoutID)
	assert.Equal(t, types.CHECKOUT_CART, result.Kind)
	assert.Nil(t, result.ReceiptRef)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyAndReconcileReservationOrder(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	md := types.ReservationMetadata{UserID: 1, ReservationID: 42, TableID: 5}.Encode()
	lib.NewCheckoutGateway(&fakeGateway{snap: settledSnapshot("cs_test_8", md)})
	lib.NewMailer(&fakeMailer{})

	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
		WillReturnRows(reservationRows(42, 5, "pending"))
	mock.ExpectQuery(`INSERT INTO "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "reservations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := VerifyAndReconcile(context.Background(), "cs_test_8", types.CHECKOUT_RESERVATION)
	assert.Nil(t, err)
	assert.False(t, result.AlreadyKnown)
	assert.Equal(t, uint(9), result.CheckoutID)
	assert.NotNil(t, result.ReservationID)
	assert.Equal(t, uint(42), *result.ReservationID)
	assert.NotNil(t, result.ReceiptRef)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyAndReconcileDuplicateInsertReturnsExisting(t *testing.T) {
	d, mock := NewMockDB()
	db.NewDB(d)
	md := types.CartMetadata{
		UserID: 1,
		Items:  []types.CartMetadataItem{{MenuItemID: 11, Name: "Margherita", Price: 12.5, Quantity: 2}},
	}.Encode()
	lib.NewCheckoutGateway(&fakeGateway{snap: settledSnapshot("cs_test_9", md)})

	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "checkouts"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT (.+) FROM "checkouts"`).
		WillReturnRows(checkoutRows(8, "cs_test_9", "cart"))

	result, err := VerifyAndReconcile(context.Background(), "cs_test_9", types.CHECKOUT_CART)
	assert.Nil(t, err)
	assert.True(t, result.AlreadyKnown)
	assert.Equal(t, uint(8), result.CheckoutID)
	assert.Nil(t, mock.ExpectationsWereMet())
}
