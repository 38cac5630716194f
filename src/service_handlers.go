package main

import (
	"net/http"

	"vrober/src/db"
	"vrober/src/models"
	"vrober/src/types"

	"github.com/gin-gonic/gin"
)

// Catalog browsing is public: the mobile app shows categories and services
// before login.
func catalogHandlers(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/categories", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var categories []models.Category
			if err := gdb.
				Where("active = ?", true).
				Order("name ASC").
				Find(&categories).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": categories, "count": len(categories)})
		}).
		GET("/categories/:id/services", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var services []models.Service
			if err := gdb.
				Where("category_id = ? AND active = ?", params.ID, true).
				Order("name ASC").
				Find(&services).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": services, "count": len(services)})
		}).
		GET("/services", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var services []models.Service
			if err := gdb.
				Preload("Category").
				Where("active = ?", true).
				Order("name ASC").
				Find(&services).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": services, "count": len(services)})
		}).
		GET("/services/popular", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var services []models.Service
			if err := gdb.
				Preload("Category").
				Where("active = ?", true).
				Order("booking_count DESC").
				Limit(10).
				Find(&services).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": services})
		}).
		GET("/services/:id", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var service models.Service
			if err := gdb.
				Preload("Category").
				Where("id = ? AND active = ?", params.ID, true).
				First(&service).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": service})
		})
}
