package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"rms/src/config"
	"rms/src/db"
	"rms/src/lib"
	"rms/src/models"
	"rms/src/models/scopes"
	"rms/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArrivalDayOptions returns the weekday names a guest may pick for a given
// reservation date: the date's own weekday plus the two days after it.
func ArrivalDayOptions(date time.Time) []string {
	opts := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		opts = append(opts, date.AddDate(0, 0, i).Weekday().String())
	}
	return opts
}

func ValidArrivalDay(day string, date time.Time) bool {
	for _, opt := range ArrivalDayOptions(date) {
		if strings.EqualFold(day, opt) {
			return true
		}
	}
	return false
}

func userReservationsCacheKey(userId uint) string {
	return fmt.Sprintf("reservations:%d", userId)
}

// ReserveTable places a pending reservation on a table. The whole check
// and insert sequence runs under a FOR UPDATE lock on the table row, so
// concurrent attempts on the same table serialize and at most one wins.
func ReserveTable(userId uint, tableId uint, params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	at, err := params.ReservationAt(time.Local)
	if err != nil {
		return nil, err
	}
	if !ValidArrivalDay(params.ArrivalDay, at) {
		return nil, types.ErrArrivalDayOutOfRange
	}
	db := db.GetDb()
	var reservation models.Reservation
	err = db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Table{ID: tableId, IsAvailable: true, IsReservable: true}).
			First(&table).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrTableUnavailable
			}
			return err
		}
		if params.GuestCount > table.MaxGuests {
			return types.ErrCapacityExceeded
		}
		var conflicts int64
		if err := tx.
			Model(&models.Reservation{}).
			Scopes(scopes.OverlappingWindow(table.ID, at)).
			Count(&conflicts).
			Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return types.ErrOverlapConflict
		}
		reservation = models.Reservation{
			UserID:          userId,
			TableID:         &table.ID,
			ReservationDate: at,
			ArrivalDay:      params.ArrivalDay,
			ReservationTime: params.ReservationTime,
			GuestCount:      params.GuestCount,
			Status:          types.RESERVATION_PENDING,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		// false is a zero value for gorm, map updates only
		if err := tx.
			Model(&models.Table{}).
			Where("id = ?", table.ID).
			Updates(map[string]any{
				"is_available":  false,
				"is_reservable": false,
				"status":        types.TABLE_RESERVED,
			}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	rc := lib.GetCache()
	rc.Invalidate(context.Background(), userReservationsCacheKey(userId))
	return &reservation, nil
}

// CancelReservation marks a reservation cancelled and releases its table.
// Repeat calls after the first success fail with ErrAlreadyCancelled.
func CancelReservation(userId uint, reservationId uint) error {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Table:    clause.Table{Name: clause.CurrentTable},
			}).
			Where(&models.Reservation{ID: reservationId, UserID: userId}).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrNotFound
			}
			return err
		}
		if reservation.Status == types.RESERVATION_CANCELLED {
			return types.ErrAlreadyCancelled
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where("id = ?", reservation.ID).
			Update("status", types.RESERVATION_CANCELLED).
			Error; err != nil {
			return err
		}
		if reservation.TableID != nil {
			if err := tx.
				Model(&models.Table{}).
				Where("id = ?", *reservation.TableID).
				Updates(map[string]any{
					"is_available":  true,
					"is_reservable": true,
					"status":        types.TABLE_ACTIVE,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	rc := lib.GetCache()
	rc.Invalidate(context.Background(), userReservationsCacheKey(userId))
	return nil
}

func GetUserReservations(userId uint) ([]models.Reservation, error) {
	rc := lib.GetCache()
	key := userReservationsCacheKey(userId)
	if cached, ok := rc.Get(context.Background(), key); ok {
		var reservations []models.Reservation
		if err := json.Unmarshal([]byte(cached), &reservations); err == nil {
			return reservations, nil
		}
		log.Printf("Error decoding cached reservations for user [%d], refetching\n", userId)
	}
	db := db.GetDb()
	var reservations []models.Reservation
	if err := db.
		Model(&models.Reservation{}).
		Scopes(scopes.WithUser(userId)).
		Preload("Table").
		Order("created_at DESC").
		Find(&reservations).
		Error; err != nil {
		return nil, err
	}
	if b, err := json.Marshal(reservations); err == nil {
		rc.SetEx(context.Background(), key, string(b), 10*time.Minute)
	}
	return reservations, nil
}

// ReleaseStaleReservations cancels pending reservations older than the
// configured hold window and hands their tables back. Runs from the
// scheduler; each reservation is released in its own transaction so one
// failure does not keep the rest locked up.
func ReleaseStaleReservations() {
	holdMinutes := config.GetenvInt("RESERVATION_HOLD_MINUTES", 60)
	cutoff := time.Now().Add(-time.Duration(holdMinutes) * time.Minute)
	db := db.GetDb()
	var stale []models.Reservation
	if err := db.
		Model(&models.Reservation{}).
		Where("status = ?", types.RESERVATION_PENDING).
		Where("created_at < ?", cutoff).
		Find(&stale).
		Error; err != nil {
		log.Printf("Error querying stale reservations: %s\n", err.Error())
		return
	}
	for _, r := range stale {
		err := db.Transaction(func(tx *gorm.DB) error {
			var reservation models.Reservation
			if err := tx.
				Clauses(clause.Locking{
					Strength: "UPDATE",
					Table:    clause.Table{Name: clause.CurrentTable},
				}).
				Where(&models.Reservation{ID: r.ID, Status: types.RESERVATION_PENDING}).
				First(&reservation).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// confirmed or cancelled since the query, leave it
					return nil
				}
				return err
			}
			if err := tx.
				Model(&models.Reservation{}).
				Where("id = ?", reservation.ID).
				Update("status", types.RESERVATION_CANCELLED).
				Error; err != nil {
				return err
			}
			if reservation.TableID != nil {
				if err := tx.
					Model(&models.Table{}).
					Where("id = ?", *reservation.TableID).
					Updates(map[string]any{
						"is_available":  true,
						"is_reservable": true,
						"status":        types.TABLE_ACTIVE,
					}).Error; err != nil {
					return err
				}
			}
			log.Printf("Released stale reservation [%d] on table [%v]\n", reservation.ID, reservation.TableID)
			return nil
		})
		if err != nil {
			log.Printf("Error releasing stale reservation [%d]: %s\n", r.ID, err.Error())
			continue
		}
		rc := lib.GetCache()
		rc.Invalidate(context.Background(), userReservationsCacheKey(r.UserID))
	}
}
