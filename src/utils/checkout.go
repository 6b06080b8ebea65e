package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"rms/src/db"
	"rms/src/lib"
	"rms/src/models"
	"rms/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateCartCheckout opens a hosted checkout session for everything in the
// user's cart. The gateway call happens with no database lock held.
func CreateCartCheckout(userId uint) (*string, *string, error) {
	db := db.GetDb()
	var items []models.CartItem
	if err := db.
		Model(&models.CartItem{}).
		Where(&models.CartItem{UserID: userId}).
		Preload("MenuItem").
		Find(&items).
		Error; err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, types.ErrCartEmpty
	}

	currency := os.Getenv("CHECKOUT_CURRENCY")
	if currency == "" {
		currency = "usd"
	}
	lineItems := []lib.SessionLineItem{}
	mdItems := []types.CartMetadataItem{}
	for _, v := range items {
		lineItems = append(lineItems, lib.SessionLineItem{
			Name:        v.MenuItem.Name,
			Description: v.MenuItem.Description,
			ImageURL:    v.MenuItem.ImageURL,
			Currency:    currency,
			UnitAmount:  int64(math.Round(v.MenuItem.Price * 100)),
			Quantity:    int64(v.Quantity),
		})
		mdItems = append(mdItems, types.CartMetadataItem{
			MenuItemID: v.MenuItemID,
			Name:       v.MenuItem.Name,
			Price:      v.MenuItem.Price,
			Quantity:   v.Quantity,
		})
	}
	md := types.CartMetadata{UserID: userId, Items: mdItems}
	appHost := os.Getenv("APP_HOST")
	gw := lib.GetCheckoutGateway()
	snap, url, err := gw.CreateSession(context.Background(), &lib.CreateSessionInput{
		LineItems:  lineItems,
		SuccessURL: fmt.Sprintf("%s/payment/verify?session_id={CHECKOUT_SESSION_ID}", appHost),
		CancelURL:  fmt.Sprintf("%s/cart", appHost),
		Metadata:   md.Encode(),
	})
	if err != nil {
		log.Printf("CreateCartCheckout failed: %s\n", err.Error())
		return nil, nil, err
	}
	return &snap.ID, &url, nil
}

// CreateReservationCheckout opens a hosted checkout session that, once
// settled, confirms the referenced pending reservation.
func CreateReservationCheckout(userId uint, params *types.CreateReservationCheckoutRequestBody) (*string, *string, error) {
	db := db.GetDb()
	var reservation models.Reservation
	if err := db.
		Model(&models.Reservation{}).
		Where(&models.Reservation{ID: params.ReservationID, UserID: userId}).
		First(&reservation).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, types.ErrNotFound
		}
		return nil, nil, err
	}
	if reservation.Status == types.RESERVATION_CANCELLED {
		return nil, nil, types.ErrAlreadyCancelled
	}
	var tableId uint
	if reservation.TableID != nil {
		tableId = *reservation.TableID
	}

	currency := params.Currency
	if currency == "" {
		currency = os.Getenv("CHECKOUT_CURRENCY")
	}
	if currency == "" {
		currency = "usd"
	}
	md := types.ReservationMetadata{
		UserID:        userId,
		ReservationID: reservation.ID,
		TableID:       tableId,
	}
	appHost := os.Getenv("APP_HOST")
	gw := lib.GetCheckoutGateway()
	snap, url, err := gw.CreateSession(context.Background(), &lib.CreateSessionInput{
		LineItems: []lib.SessionLineItem{
			{
				Name:        params.Name,
				Description: params.Description,
				ImageURL:    params.ImageURL,
				Currency:    currency,
				UnitAmount:  int64(math.Round(params.Price * 100)),
				Quantity:    1,
			},
		},
		SuccessURL: fmt.Sprintf("%s/checkouts/reservation/verify?session_id={CHECKOUT_SESSION_ID}", appHost),
		CancelURL:  fmt.Sprintf("%s/reservations", appHost),
		Metadata:   md.Encode(),
	})
	if err != nil {
		log.Printf("CreateReservationCheckout failed: %s\n", err.Error())
		return nil, nil, err
	}
	return &snap.ID, &url, nil
}

// VerifyAndReconcile turns a settled checkout session into local state
// exactly once. The unique index on checkouts.session_id is the final
// arbiter when two calls race: the loser's insert comes back as a
// duplicate key and the existing record is returned instead.
func VerifyAndReconcile(ctx context.Context, sessionId string, kind types.CheckoutKind) (*types.ReconciliationResult, error) {
	gw := lib.GetCheckoutGateway()
	snap, err := gw.RetrieveSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !snap.Settled() {
		return nil, types.ErrPaymentIncomplete
	}

	db := db.GetDb()
	var existing models.Checkout
	err = db.
		Model(&models.Checkout{}).
		Where(&models.Checkout{SessionID: sessionId}).
		First(&existing).
		Error
	if err == nil {
		return resultFromCheckout(&existing, true), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var checkout *models.Checkout
	switch kind {
	case types.CHECKOUT_CART:
		checkout, err = reconcileCartOrder(db, snap)
	case types.CHECKOUT_RESERVATION:
		checkout, err = reconcileReservationOrder(db, snap)
	default:
		log.Printf("Unknown checkout kind [%s] for session [%s]\n", kind, sessionId)
		return nil, types.ErrMalformedMetadata
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race, the session is already recorded
			if ferr := db.
				Model(&models.Checkout{}).
				Where(&models.Checkout{SessionID: sessionId}).
				First(&existing).
				Error; ferr == nil {
				return resultFromCheckout(&existing, true), nil
			}
			return nil, err
		}
		return nil, err
	}

	if kind == types.CHECKOUT_RESERVATION {
		go sendReservationConfirmationMail(checkout)
	}
	return resultFromCheckout(checkout, false), nil
}

func newCheckoutFromSnapshot(snap *lib.SessionSnapshot, userId uint, kind types.CheckoutKind) *models.Checkout {
	paymentMethod := "card"
	if len(snap.PaymentMethodTypes) > 0 {
		paymentMethod = snap.PaymentMethodTypes[0]
	}
	now := time.Now()
	md := types.JSONB{}
	for k, v := range snap.Metadata {
		md[k] = v
	}
	var paymentIntentId *string
	if snap.PaymentIntentID != "" {
		paymentIntentId = &snap.PaymentIntentID
	}
	return &models.Checkout{
		UserID:          userId,
		Kind:            kind,
		ReferenceID:     uuid.NewString(),
		SessionID:       snap.ID,
		PaymentIntentID: paymentIntentId,
		AmountTotal:     snap.AmountTotal,
		Currency:        snap.Currency,
		PaymentStatus:   types.PaymentStatus(snap.PaymentStatus),
		PaymentMethod:   paymentMethod,
		PaymentDate:     &now,
		CustomerEmail:   snap.CustomerEmail,
		CustomerName:    snap.CustomerName,
		Metadata:        md,
	}
}

func reconcileCartOrder(db *gorm.DB, snap *lib.SessionSnapshot) (*models.Checkout, error) {
	md, err := types.ParseCartMetadata(snap.Metadata)
	if err != nil {
		log.Printf("Malformed cart metadata on session [%s]: %v\n", snap.ID, snap.Metadata)
		return nil, err
	}
	checkout := newCheckoutFromSnapshot(snap, md.UserID, types.CHECKOUT_CART)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(checkout).Error; err != nil {
			return err
		}
		for _, v := range md.Items {
			item := models.CheckoutItem{
				CheckoutID: checkout.ID,
				MenuItemID: v.MenuItemID,
				Name:       v.Name,
				Price:      v.Price,
				Quantity:   v.Quantity,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		// cart is consumed once the order is recorded
		if err := tx.
			Where(&models.CartItem{UserID: md.UserID}).
			Delete(&models.CartItem{}).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checkout, nil
}

func reconcileReservationOrder(db *gorm.DB, snap *lib.SessionSnapshot) (*models.Checkout, error) {
	md, err := types.ParseReservationMetadata(snap.Metadata)
	if err != nil {
		log.Printf("Malformed reservation metadata on session [%s]: %v\n", snap.ID, snap.Metadata)
		return nil, err
	}
	checkout := newCheckoutFromSnapshot(snap, md.UserID, types.CHECKOUT_RESERVATION)
	checkout.ReservationID = &md.ReservationID
	err = db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Where(&models.Reservation{ID: md.ReservationID, UserID: md.UserID}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrMalformedMetadata
			}
			return err
		}
		if err := tx.Create(checkout).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where("id = ?", reservation.ID).
			Update("status", types.RESERVATION_CONFIRMED).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rc := lib.GetCache()
	rc.Invalidate(context.Background(), userReservationsCacheKey(md.UserID))
	return checkout, nil
}

func resultFromCheckout(c *models.Checkout, known bool) *types.ReconciliationResult {
	result := &types.ReconciliationResult{
		CheckoutID:    c.ID,
		SessionID:     c.SessionID,
		Kind:          c.Kind,
		PaymentStatus: c.PaymentStatus,
		AmountTotal:   c.AmountTotal,
		Currency:      c.Currency,
		ReservationID: c.ReservationID,
		AlreadyKnown:  known,
	}
	if c.Kind == types.CHECKOUT_RESERVATION {
		ref := fmt.Sprintf("/api/v1/checkouts/reservation/%d/receipt", c.ID)
		result.ReceiptRef = &ref
	}
	return result
}

func sendReservationConfirmationMail(checkout *models.Checkout) {
	if checkout == nil || checkout.ReservationID == nil {
		return
	}
	db := db.GetDb()
	var reservation models.Reservation
	if err := db.
		Model(&models.Reservation{}).
		Where("id = ?", *checkout.ReservationID).
		Preload("Table").
		Preload("User").
		First(&reservation).
		Error; err != nil {
		log.Printf("Error loading reservation [%d] for confirmation mail: %s\n", *checkout.ReservationID, err.Error())
		return
	}
	to := checkout.CustomerEmail
	if to == "" {
		to = reservation.User.Email
	}
	if to == "" {
		return
	}
	tableName := ""
	if reservation.Table != nil {
		tableName = reservation.Table.Name
	}
	body := fmt.Sprintf(
		"Your reservation is confirmed.\n\nTable: %s\nDate: %s\nTime: %s\nGuests: %d\n",
		tableName,
		reservation.ReservationDate.Format("2006-01-02"),
		reservation.ReservationTime,
		reservation.GuestCount,
	)
	m := lib.GetMailer()
	if err := m.SendMail(&lib.SendMailInput{
		From:     os.Getenv("MAIL_FROM"),
		FromName: os.Getenv("MAIL_FROM_NAME"),
		To:       []string{to},
		Subject:  "Reservation confirmed",
		Body:     body,
	}); err != nil {
		log.Printf("Error sending confirmation mail for reservation [%d]: %s\n", reservation.ID, err.Error())
	}
}
