package lib

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vrober/src/config"
	"vrober/src/types"

	"github.com/stretchr/testify/assert"
)

func testConfig() config.CashfreeConfig {
	return config.CashfreeConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Environment:  "sandbox",
		APIVersion:   "2023-08-01",
	}
}

func TestCreateOrder(t *testing.T) {
	var gotHeaders http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cf_order_id":"cf_123","order_id":"ORDER_1","payment_session_id":"session_abc","order_status":"ACTIVE"}`))
	}))
	defer ts.Close()

	client := NewCashfreeClientWith(ts.URL, testConfig(), ts.Client())
	res, err := client.CreateOrder(context.Background(), &CashfreeOrderRequest{
		OrderID:       "ORDER_1",
		OrderAmount:   499.00,
		OrderCurrency: "INR",
	})
	assert.Nil(t, err)
	assert.Equal(t, "cf_123", res.CFOrderID)
	assert.Equal(t, "session_abc", res.PaymentSessionID)

	assert.Equal(t, "test-client", gotHeaders.Get("x-client-id"))
	assert.Equal(t, "test-secret", gotHeaders.Get("x-client-secret"))
	assert.Equal(t, "2023-08-01", gotHeaders.Get("x-api-version"))
}

func TestCreateOrderRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"authentication failed"}`))
	}))
	defer ts.Close()

	client := NewCashfreeClientWith(ts.URL, testConfig(), ts.Client())
	_, err := client.CreateOrder(context.Background(), &CashfreeOrderRequest{OrderID: "ORDER_2"})
	assert.NotNil(t, err)

	ge, ok := err.(*types.GatewayError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ge.Status)
	assert.False(t, ge.Timeout)
}

func TestCreateOrderTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	client := NewCashfreeClientWith(ts.URL, testConfig(), &http.Client{Timeout: 20 * time.Millisecond})
	_, err := client.CreateOrder(context.Background(), &CashfreeOrderRequest{OrderID: "ORDER_3"})
	assert.NotNil(t, err)

	ge, ok := err.(*types.GatewayError)
	assert.True(t, ok)
	assert.True(t, ge.Timeout)
}

func TestGetOrderPayments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/ORDER_4/payments", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"cf_payment_id":885473,"payment_status":"SUCCESS","bank_reference":"1873001"}]`))
	}))
	defer ts.Close()

	client := NewCashfreeClientWith(ts.URL, testConfig(), ts.Client())
	attempts, err := client.GetOrderPayments(context.Background(), "ORDER_4")
	assert.Nil(t, err)
	assert.Len(t, attempts, 1)
	assert.Equal(t, "SUCCESS", attempts[0].PaymentStatus)
	assert.Equal(t, "885473", attempts[0].CFPaymentID.String())
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "test-secret"
	timestamp := "1712345678"
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyWebhookSignature(timestamp, body, signature, secret))
	assert.False(t, VerifyWebhookSignature(timestamp, body, signature, "other-secret"))
	assert.False(t, VerifyWebhookSignature("1712345679", body, signature, secret))
	assert.False(t, VerifyWebhookSignature(timestamp, []byte(`{}`), signature, secret))
}
