package main

import (
	"log"
	"net/http"

	"rms/src/db"
	"rms/src/models"
	"rms/src/types"

	"github.com/gin-gonic/gin"
)

func tableHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tables", func(ctx *gin.Context) {
			db := db.GetDb()
			var tables []models.Table
			if err := db.
				Model(&models.Table{}).
				Where(&models.Table{IsAvailable: true, IsReservable: true, Status: types.TABLE_ACTIVE}).
				Order("table_number ASC").
				Find(&tables).
				Error; err != nil {
				log.Printf("Error retrieving tables: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tables, "count": len(tables)})
		})
	return g
}
