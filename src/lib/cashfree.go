package lib

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"vrober/src/config"
	"vrober/src/types"
)

// CashfreeClient talks to the Cashfree PG REST API. There is no Go SDK for
// this gateway so the client is plain net/http with a bounded timeout.
type CashfreeClient struct {
	cfg     config.CashfreeConfig
	baseURL string
	http    *http.Client
}

var cashfreeClient *CashfreeClient

func GetCashfreeClient() *CashfreeClient {
	if cashfreeClient != nil {
		return cashfreeClient
	}
	cfg := config.GetCashfreeConfig()
	cashfreeClient = &CashfreeClient{
		cfg:     cfg,
		baseURL: cfg.BaseURL(),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	return cashfreeClient
}

// NewCashfreeClient Replace the gateway client. Used by tests.
func NewCashfreeClient(c *CashfreeClient) {
	cashfreeClient = c
}

// NewCashfreeClientWith builds a client against an arbitrary base URL.
func NewCashfreeClientWith(baseURL string, cfg config.CashfreeConfig, hc *http.Client) *CashfreeClient {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &CashfreeClient{cfg: cfg, baseURL: baseURL, http: hc}
}

type CashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type CashfreeOrderRequest struct {
	OrderID         string           `json:"order_id"`
	OrderAmount     float64          `json:"order_amount"`
	OrderCurrency   string           `json:"order_currency"`
	CustomerDetails CashfreeCustomer `json:"customer_details"`
	OrderNote       string           `json:"order_note,omitempty"`
}

type CashfreeOrderResponse struct {
	CFOrderID        string `json:"cf_order_id"`
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentSessionID string `json:"payment_session_id"`
}

type CashfreePayment struct {
	CFPaymentID    json.Number `json:"cf_payment_id"`
	PaymentStatus  string      `json:"payment_status"`
	PaymentAmount  float64     `json:"payment_amount"`
	PaymentTime    string      `json:"payment_time"`
	BankReference  string      `json:"bank_reference"`
	PaymentMessage string      `json:"payment_message"`
}

func (c *CashfreeClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-client-secret", c.cfg.ClientSecret)
	req.Header.Set("x-api-version", c.cfg.APIVersion)

	res, err := c.http.Do(req)
	if err != nil {
		ge := &types.GatewayError{Op: fmt.Sprintf("%s %s", method, path), Detail: err.Error()}
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
			ge.Timeout = true
		}
		return nil, ge
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		log.Printf("[cashfree] %s %s returned %d: %s\n", method, path, res.StatusCode, string(data))
		return nil, &types.GatewayError{
			Op:     fmt.Sprintf("%s %s", method, path),
			Status: res.StatusCode,
			Detail: string(data),
		}
	}
	return data, nil
}

func (c *CashfreeClient) CreateOrder(ctx context.Context, order *CashfreeOrderRequest) (*CashfreeOrderResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/orders", order)
	if err != nil {
		return nil, err
	}
	var res CashfreeOrderResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *CashfreeClient) GetOrderPayments(ctx context.Context, orderID string) ([]CashfreePayment, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/orders/%s/payments", orderID), nil)
	if err != nil {
		return nil, err
	}
	var res []CashfreePayment
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// VerifyWebhookSignature checks the x-webhook-signature header value:
// Base64(HMAC-SHA256(timestamp + rawBody, clientSecret)).
func VerifyWebhookSignature(timestamp string, rawBody []byte, signature string, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
