package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"rms/src/db"
	"rms/src/lib"
	"rms/src/models"
	"rms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func receiptHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/checkouts/reservation/:id/receipt", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var checkout models.Checkout
			if err := db.
				Model(&models.Checkout{}).
				Where(&models.Checkout{ID: params.ID, UserID: userId, Kind: types.CHECKOUT_RESERVATION}).
				Preload("Reservation").
				Preload("Reservation.Table").
				First(&checkout).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
					return
				}
				log.Printf("Error retrieving checkout [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			if checkout.Reservation == nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
				return
			}

			rc := lib.GetCache()
			cacheKey := fmt.Sprintf("receipt:%d", checkout.ID)
			if cached, ok := rc.Get(context.Background(), cacheKey); ok {
				if _, err := os.Stat(cached); err == nil {
					ctx.FileAttachment(cached, "receipt.jpeg")
					return
				}
			}

			tableName := ""
			if checkout.Reservation.Table != nil {
				tableName = fmt.Sprintf("T00%d", checkout.Reservation.Table.TableNumber)
			}
			paymentDate := ""
			if checkout.PaymentDate != nil {
				paymentDate = checkout.PaymentDate.Format("2006-01-02 15:04")
			}
			payload := fmt.Sprintf(
				"receipt:%d|table:%s|time:%s|guests:%d|payment:%s/%s/%s",
				checkout.ID,
				tableName,
				checkout.Reservation.ReservationTime,
				checkout.Reservation.GuestCount,
				checkout.PaymentStatus,
				checkout.PaymentMethod,
				paymentDate,
			)
			filepath, err := lib.RenderReceiptQR(fmt.Sprintf("receipt_%d", checkout.ID), payload)
			if err != nil {
				log.Printf("Error rendering receipt for checkout [%d]: %s\n", checkout.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			rc.SetEx(context.Background(), cacheKey, filepath, 2*time.Hour)
			ctx.FileAttachment(filepath, "receipt.jpeg")
		})
	return g
}
