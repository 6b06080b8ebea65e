package main

import (
	"errors"
	"log"
	"net/http"

	"rms/src/types"
	"rms/src/utils"

	"github.com/gin-gonic/gin"
)

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			reservation, err := utils.ReserveTable(userId, params.ID, &body)
			if err != nil {
				log.Printf("Error reserving table [%d]: %s\n", params.ID, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			data, err := utils.GetUserReservations(userId)
			if err != nil {
				log.Printf("Error retrieving reservations for user [%d]: %s\n", userId, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			if len(data) == 0 {
				err := errors.New("no reservations found")
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
		}).
		DELETE("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if err := utils.CancelReservation(userId, params.ID); err != nil {
				log.Printf("Error cancelling reservation [%d]: %s\n", params.ID, err.Error())
				status := types.StatusForError(err)
				if status == http.StatusInternalServerError {
					ctx.JSON(status, gin.H{"error": "something went wrong"})
					return
				}
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "reservation cancelled"})
		})
	return g
}
