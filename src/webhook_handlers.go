package main

import (
	"io"
	"log"
	"net/http"

	"vrober/src/common"
	"vrober/src/config"
	"vrober/src/lib"
	"vrober/src/types"

	"github.com/gin-gonic/gin"
)

// cashfreeWebhookRoute receives gateway callbacks. The signature check runs
// against the raw body before any parsing; an invalid signature is a 401 and
// nothing is recorded.
func cashfreeWebhookRoute(g *gin.Engine) {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhooks/cashfree", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		signature := ctx.GetHeader("x-webhook-signature")
		timestamp := ctx.GetHeader("x-webhook-timestamp")
		if signature == "" || timestamp == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "missing webhook signature"})
			return
		}
		cfg := config.GetCashfreeConfig()
		if !lib.VerifyWebhookSignature(timestamp, payload, signature, cfg.ClientSecret) {
			log.Println("[webhook] Signature verification failed")
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		outcome, err := common.ApplyWebhook(payload, signature)
		if err != nil {
			log.Printf("[webhook] Error applying webhook: %s\n", err.Error())
			ctx.JSON(types.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"outcome": outcome, "success": true})
	})
}
