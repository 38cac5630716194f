package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"vrober/src/common"
	"vrober/src/lib"
	awslib "vrober/src/lib/aws"
	"vrober/src/types"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	payments := g.Group("/payments")
	payments.
		POST("/orders", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			order, err := common.CreateOrder(ctx.Request.Context(), userId, &body)
			if err != nil {
				log.Printf("Error creating order: %s\n", err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": order})
		}).
		POST("/verify", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			payment, err := common.VerifyPayment(ctx.Request.Context(), userId, body.OrderID)
			if err != nil {
				log.Printf("Error verifying order [%s]: %s\n", body.OrderID, err.Error())
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		GET("", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			payments, err := common.ListPayments(userId)
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/:orderId", func(ctx *gin.Context) {
			var params types.OrderIDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			payment, err := common.GetPayment(userId, params.OrderID)
			if err != nil {
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		GET("/:orderId/qr", func(ctx *gin.Context) {
			var params types.OrderIDURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			payment, err := common.GetPayment(userId, params.OrderID)
			if err != nil {
				ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
				return
			}
			if payment.PaymentSessionID == "" {
				ctx.JSON(http.StatusConflict, gin.H{"error": "order has no open payment session"})
				return
			}

			filename := fmt.Sprintf("order-qr-%s", payment.OrderID)
			rd := lib.GetRedisClient()
			if cached, err := rd.Get(context.Background(), filename).Result(); err == nil && cached != "" {
				ctx.Redirect(http.StatusFound, cached)
				return
			}

			qrc, err := qrcode.New(payment.PaymentSessionID)
			if err != nil {
				log.Printf("Error building QR for order [%s]: %s\n", payment.OrderID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}

			apiEnv := os.Getenv("API_ENV")
			if apiEnv == string(types.Production) {
				url, err := awslib.S3UploadAsset(filename, filepath, "image/jpeg")
				if err != nil {
					log.Printf("Error uploading asset to S3 bucket: %s\n", err.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
				rd.SetEx(context.Background(), filename, *url, 2*time.Hour)
				ctx.Redirect(http.StatusFound, *url)
				return
			}
			ctx.FileAttachment(filepath, "payment-qr.jpeg")
		})
	return payments
}
