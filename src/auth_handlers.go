package main

import (
	"log"
	"net/http"

	"vrober/src/controllers"

	"github.com/gin-gonic/gin"
)

func authHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	auth := g.Group("/auth")
	auth.
		POST("/otp/request", func(ctx *gin.Context) {
			status, err := controllers.RequestOTP(ctx.Copy())
			if err != nil {
				log.Printf("Error on RequestOTP: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true})
		}).
		POST("/otp/verify", func(ctx *gin.Context) {
			token, status, err := controllers.VerifyOTP(ctx.Copy())
			if err != nil {
				log.Printf("Error on VerifyOTP: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/admin/login", func(ctx *gin.Context) {
			token, status, err := controllers.AdminLogin(ctx.Copy())
			if err != nil {
				log.Printf("Error on AdminLogin: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		})
	return auth
}
