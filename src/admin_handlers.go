package main

import (
	"log"
	"net/http"

	"vrober/src/common"
	"vrober/src/db"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/gookit/goutil/dump"
	"gorm.io/gorm"
)

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	admin := g.Group("/admin")
	admin.
		GET("/bookings", func(ctx *gin.Context) {
			var filters types.BookingsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dump.P(filters)
			gdb := db.GetDb()
			var bookings []models.Booking
			q := gdb.
				Model(&models.Booking{}).
				Preload("Service").
				Preload("Vendor").
				Preload("User").
				Order("created_at DESC").
				Limit(200)
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if err := q.Find(&bookings).Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/assign", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.AssignVendorRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.AssignVendor(params.ID, body.VendorID); err != nil {
				log.Printf("Error assigning booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		PUT("/bookings/:id/status", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateBookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := common.OverrideBookingStatus(params.ID, body.Status, body.AdminNote); err != nil {
				log.Printf("Error overriding booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if err := common.DeleteBooking(params.ID); err != nil {
				log.Printf("Error deleting booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/vendors", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var vendors []models.Vendor
			if err := gdb.
				Preload("Categories").
				Order("created_at DESC").
				Find(&vendors).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": vendors, "count": len(vendors)})
		}).
		GET("/dashboard", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var (
				totalBookings   int64
				pendingBookings int64
				activeVendors   int64
				totalUsers      int64
				revenue         int64
			)
			err := gdb.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.Booking{}).Count(&totalBookings).Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.Booking{}).
					Where("status IN ?", []string{
						string(types.BOOKING_UNASSIGNED),
						string(types.BOOKING_PENDING),
						string(types.BOOKING_ASSIGNED),
					}).
					Count(&pendingBookings).
					Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Vendor{}).Where("active = ?", true).Count(&activeVendors).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Payment{}).
					Where("status = ?", string(types.ORDER_PAID)).
					Select("COALESCE(SUM(order_amount), 0)").
					Scan(&revenue).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"active_vendors":   activeVendors,
				"pending_bookings": pendingBookings,
				"total_bookings":   totalBookings,
				"total_revenue":    revenue,
				"total_users":      totalUsers,
			})
		}).
		POST("/categories", func(ctx *gin.Context) {
			var body types.CreateCategoryRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			category := models.Category{
				Name: body.Name,
				Slug: utils.Slugify(body.Name),
				Icon: body.Icon,
			}
			gdb := db.GetDb()
			if err := gdb.Create(&category).Error; err != nil {
				log.Printf("Error creating category: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": category})
		}).
		POST("/services", func(ctx *gin.Context) {
			var body types.CreateServiceRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			service := models.Service{
				CategoryID:  body.CategoryID,
				Name:        body.Name,
				Slug:        utils.Slugify(body.Name),
				Description: body.Description,
				Price:       body.Price,
				Duration:    body.Duration,
				Image:       body.Image,
			}
			gdb := db.GetDb()
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var category models.Category
				if err := tx.Where("id = ?", body.CategoryID).First(&category).Error; err != nil {
					return err
				}
				return tx.Create(&service).Error
			})
			if err != nil {
				log.Printf("Error creating service: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": service})
		})
	return admin
}
