package main

import (
	"errors"
	"log"
	"net/http"

	"rms/src/db"
	"rms/src/models"
	"rms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func cartHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/cart", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var items []models.CartItem
			if err := db.
				Model(&models.CartItem{}).
				Where(&models.CartItem{UserID: userId}).
				Preload("MenuItem").
				Find(&items).
				Error; err != nil {
				log.Printf("Error retrieving cart for user [%d]: %s\n", userId, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": items, "count": len(items)})
		}).
		POST("/cart", func(ctx *gin.Context) {
			var body types.AddCartItemRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var menuItem models.MenuItem
			if err := db.
				Where("id = ?", body.MenuItemID).
				First(&menuItem).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "menu item not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			var existing models.CartItem
			err := db.
				Where(&models.CartItem{UserID: userId, MenuItemID: body.MenuItemID}).
				First(&existing).
				Error
			if err == nil {
				// 209 is what clients already expect for a repeat add
				ctx.JSON(209, gin.H{"error": types.ErrDuplicateCartItem.Error()})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			item := models.CartItem{
				UserID:     userId,
				MenuItemID: body.MenuItemID,
				Quantity:   body.Quantity,
			}
			if err := db.Create(&item).Error; err != nil {
				log.Printf("Error adding cart item for user [%d]: %s\n", userId, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": item})
		}).
		DELETE("/cart/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			result := db.
				Where(&models.CartItem{ID: params.ID, UserID: userId}).
				Delete(&models.CartItem{})
			if result.Error != nil {
				log.Printf("Error removing cart item [%d]: %s\n", params.ID, result.Error.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
				return
			}
			if result.RowsAffected == 0 {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "cart item removed"})
		})
	return g
}
