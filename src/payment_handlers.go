package main

import (
	"errors"
	"log"
	"net/http"

	"rms/src/types"
	"rms/src/utils"

	"github.com/gin-gonic/gin"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payment", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			sessionId, url, err := utils.CreateCartCheckout(userId)
			if err != nil {
				log.Printf("Error creating cart checkout for user [%d]: %s\n", userId, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": sessionId, "url": url})
		}).
		GET("/payment/verify", func(ctx *gin.Context) {
			sessionId := ctx.Query("session_id")
			if sessionId == "" {
				err := errors.New("session_id is required")
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			result, err := utils.VerifyAndReconcile(ctx, sessionId, types.CHECKOUT_CART)
			if err != nil {
				log.Printf("Error verifying session [%s]: %s\n", sessionId, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		POST("/checkouts/reservation", func(ctx *gin.Context) {
			var body types.CreateReservationCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			sessionId, url, err := utils.CreateReservationCheckout(userId, &body)
			if err != nil {
				log.Printf("Error creating reservation checkout for user [%d]: %s\n", userId, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": sessionId, "url": url})
		}).
		GET("/checkouts/reservation/verify", func(ctx *gin.Context) {
			sessionId := ctx.Query("session_id")
			if sessionId == "" {
				err := errors.New("session_id is required")
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			result, err := utils.VerifyAndReconcile(ctx, sessionId, types.CHECKOUT_RESERVATION)
			if err != nil {
				log.Printf("Error verifying session [%s]: %s\n", sessionId, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		})
	return g
}
