package main

import (
	"log"
	"net/http"

	"vrober/src/common"
	"vrober/src/db"
	"vrober/src/models"
	"vrober/src/types"

	"github.com/gin-gonic/gin"
)

func vendorHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	vendor := g.Group("/vendor")
	vendor.
		GET("/bookings", func(ctx *gin.Context) {
			var filters types.BookingsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			vendorId := ctx.GetUint("id")
			bookings, err := common.GetVendorBookings(vendorId, filters.Status)
			if err != nil {
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PUT("/bookings/:id/accept", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.AcceptBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			vendorId := ctx.GetUint("id")
			if err := common.AcceptBooking(vendorId, params.ID, body.VendorNotes); err != nil {
				log.Printf("Error accepting booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		PUT("/bookings/:id/reject", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.RejectBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil && err.Error() != "EOF" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			vendorId := ctx.GetUint("id")
			if err := common.RejectBooking(vendorId, params.ID, body.Reason); err != nil {
				log.Printf("Error rejecting booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		PUT("/bookings/:id/start", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			vendorId := ctx.GetUint("id")
			if err := common.StartBooking(vendorId, params.ID); err != nil {
				log.Printf("Error starting booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		PUT("/bookings/:id/complete", func(ctx *gin.Context) {
			var params types.IDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			vendorId := ctx.GetUint("id")
			if err := common.CompleteBooking(vendorId, params.ID); err != nil {
				log.Printf("Error completing booking [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		PUT("/availability", func(ctx *gin.Context) {
			var body types.UpdateVendorAvailabilityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			vendorId := ctx.GetUint("id")
			gdb := db.GetDb()
			err := gdb.
				Model(&models.Vendor{}).
				Where("id = ?", vendorId).
				Updates(map[string]any{"active": *body.Active}).
				Error
			if err != nil {
				log.Printf("Error updating availability for vendor [%d]: %s\n", vendorId, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"active": *body.Active})
		}).
		GET("/profile", func(ctx *gin.Context) {
			vendorId := ctx.GetUint("id")
			gdb := db.GetDb()
			var vendor models.Vendor
			if err := gdb.
				Preload("Categories").
				Where("id = ?", vendorId).
				First(&vendor).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": vendor})
		})
	return vendor
}
