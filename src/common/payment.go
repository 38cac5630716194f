package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"vrober/src/config"
	"vrober/src/db"
	"vrober/src/lib"
	"vrober/src/models"
	"vrober/src/types"
	"vrober/src/utils"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// CreateOrderResult is what the client needs to open the gateway checkout.
type CreateOrderResult struct {
	OrderID          string  `json:"order_id"`
	OrderAmount      float64 `json:"order_amount"`
	OrderCurrency    string  `json:"order_currency"`
	PaymentSessionID string  `json:"payment_session_id"`
	CFOrderID        string  `json:"cf_order_id"`
}

// CreateOrder validates the requested bookings, registers the order with the
// gateway and only then persists it. A gateway failure leaves no local state.
func CreateOrder(ctx context.Context, userId uint, params *types.CreateOrderRequestBody) (*CreateOrderResult, error) {
	gdb := db.GetDb()

	var bookings []models.Booking
	if err := gdb.
		Where("id IN ? AND user_id = ?", params.BookingIDs, userId).
		Find(&bookings).
		Error; err != nil {
		return nil, err
	}
	if len(bookings) != len(params.BookingIDs) {
		return nil, &types.ValidationError{Detail: "some bookings were not found for this account"}
	}
	var total int64
	for _, b := range bookings {
		if b.PaymentStatus == string(types.PAYMENT_PAID) {
			return nil, &types.ValidationError{Detail: fmt.Sprintf("booking %d is already paid", b.ID)}
		}
		total += b.Price
	}
	if total <= 0 {
		return nil, &types.ValidationError{Detail: "order amount must be greater than zero"}
	}

	var user models.User
	if err := gdb.Where("id = ?", userId).First(&user).Error; err != nil {
		return nil, err
	}

	// Amount is computed server-side from stored prices; the gateway API
	// wants rupees, prices are stored in paise.
	orderID := utils.GenerateOrderID(userId)
	amount := float64(total) / 100

	cf := lib.GetCashfreeClient()
	res, err := cf.CreateOrder(ctx, &lib.CashfreeOrderRequest{
		OrderID:       orderID,
		OrderAmount:   amount,
		OrderCurrency: "INR",
		CustomerDetails: lib.CashfreeCustomer{
			CustomerID:    fmt.Sprintf("%d", user.ID),
			CustomerName:  user.Name,
			CustomerEmail: user.Email,
			CustomerPhone: user.Phone,
		},
	})
	if err != nil {
		log.Printf("[payments] Gateway rejected order %s: %s\n", orderID, err.Error())
		return nil, err
	}

	payment := models.Payment{
		OrderID:          orderID,
		OrderAmount:      total,
		OrderCurrency:    "INR",
		UserID:           userId,
		BookingIDs:       types.IDSlice(params.BookingIDs),
		Status:           string(types.ORDER_CREATED),
		CFOrderID:        res.CFOrderID,
		PaymentSessionID: res.PaymentSessionID,
		Customer: types.JSONB{
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
		},
	}
	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Booking{}).
			Where("id IN ?", params.BookingIDs).
			Updates(map[string]any{
				"payment_id":     payment.ID,
				"payment_method": string(types.METHOD_ONLINE),
				"payment_status": string(types.PAYMENT_PENDING),
			}).
			Error
	})
	if err != nil {
		return nil, err
	}

	go schedulePaymentCheck(orderID)

	return &CreateOrderResult{
		OrderID:          orderID,
		OrderAmount:      amount,
		OrderCurrency:    "INR",
		PaymentSessionID: res.PaymentSessionID,
		CFOrderID:        res.CFOrderID,
	}, nil
}

// schedulePaymentCheck books a one-shot reconciliation for orders whose
// webhook never arrives. Recorded as a JobTask so it survives restarts.
func schedulePaymentCheck(orderID string) {
	task := models.JobTask{
		Name:      fmt.Sprintf("payment-check_%s", orderID),
		JobType:   "payment-check",
		RunsAt:    time.Now().Add(config.PaymentExpiryWindow()),
		PayloadID: uuid.NewString(),
		Payload:   types.JSONB{"order_id": orderID},
		Reference: orderID,
		Topic:     utils.WithSuffix("PaymentChecks"),
	}
	task.Payload["payloadId"] = task.PayloadID
	if _, err := task.CreateAndEnqueueJobTask(task); err != nil {
		log.Printf("[payments] Could not schedule check for %s: %s\n", orderID, err.Error())
	}
}

type WebhookOutcome string

const (
	OutcomeApplied          WebhookOutcome = "applied"
	OutcomeAlreadyProcessed WebhookOutcome = "already-processed"
	OutcomeIgnored          WebhookOutcome = "ignored"
	OutcomeRecorded         WebhookOutcome = "recorded"
)

type successDetails struct {
	cfPaymentID   string
	bankReference string
	paymentTime   *time.Time
	method        string
}

// ApplyWebhook classifies a verified gateway callback and reconciles the
// payment and its bookings in one transaction. Safe to call for duplicate
// deliveries: a repeat SUCCESS on a PAID order is a no-op.
func ApplyWebhook(payload []byte, signature string) (WebhookOutcome, error) {
	body := string(payload)
	if !gjson.Valid(body) {
		return "", &types.ValidationError{Detail: "invalid webhook payload"}
	}
	orderID := gjson.Get(body, "data.order.order_id").String()
	if orderID == "" {
		return "", &types.ValidationError{Detail: "missing order id in webhook payload"}
	}
	eventType := gjson.Get(body, "type").String()
	paymentStatus := gjson.Get(body, "data.payment.payment_status").String()

	var raw types.JSONB
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", &types.ValidationError{Detail: "invalid webhook payload"}
	}

	outcome := OutcomeApplied
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &types.NotFoundError{Resource: "payment", ID: orderID}
			}
			return err
		}

		switch paymentStatus {
		case "SUCCESS":
			if payment.Status == string(types.ORDER_PAID) {
				outcome = OutcomeAlreadyProcessed
				return nil
			}
			var paymentTime *time.Time
			if ts := gjson.Get(body, "data.payment.payment_time").String(); ts != "" {
				if t, err := time.Parse(time.RFC3339, ts); err == nil {
					paymentTime = &t
				}
			}
			applied, err := applySuccessTx(tx, &payment, successDetails{
				cfPaymentID:   gjson.Get(body, "data.payment.cf_payment_id").String(),
				bankReference: gjson.Get(body, "data.payment.bank_reference").String(),
				paymentTime:   paymentTime,
				method:        gjson.Get(body, "data.payment.payment_group").String(),
			}, raw)
			if err != nil {
				return err
			}
			if !applied {
				outcome = OutcomeAlreadyProcessed
			}
			return nil
		case "FAILED":
			applied, err := applyFailureTx(tx, &payment, gjson.Get(body, "data.payment.payment_message").String(), raw)
			if err != nil {
				return err
			}
			if !applied {
				// A failure after PAID describes an earlier attempt.
				outcome = OutcomeIgnored
			}
			return nil
		case "USER_DROPPED", "CANCELLED":
			applied, err := applyCancelTx(tx, &payment, raw)
			if err != nil {
				return err
			}
			if !applied {
				outcome = OutcomeIgnored
			}
			return nil
		default:
			// Intermediate statuses just move the order to ACTIVE and keep
			// the payload for audit.
			outcome = OutcomeRecorded
			return tx.
				Model(&models.Payment{}).
				Where("order_id = ? AND status = ?", orderID, string(types.ORDER_CREATED)).
				Updates(map[string]any{
					"raw_webhook_data": raw,
					"status":           string(types.ORDER_ACTIVE),
				}).
				Error
		}
	})
	// Audit row regardless of classification, best effort.
	recordWebhookEvent(orderID, eventType, signature, raw, outcome, err)
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// applySuccessTx moves the order to PAID and cascades to its bookings: they
// become paid, carry the gateway transaction id, and any still waiting for
// assignment are promoted into the dispatch queue. The conditional update
// keeps duplicate deliveries idempotent.
func applySuccessTx(tx *gorm.DB, payment *models.Payment, d successDetails, raw types.JSONB) (bool, error) {
	updates := map[string]any{
		"bank_reference": d.bankReference,
		"cf_payment_id":  d.cfPaymentID,
		"status":         string(types.ORDER_PAID),
		"transaction_id": d.cfPaymentID,
	}
	if raw != nil {
		updates["raw_webhook_data"] = raw
	}
	if d.paymentTime != nil {
		updates["payment_time"] = *d.paymentTime
	}
	if d.method != "" {
		updates["payment_method"] = d.method
	}
	res := tx.
		Model(&models.Payment{}).
		Where("order_id = ? AND status <> ?", payment.OrderID, string(types.ORDER_PAID)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	ids := []uint(payment.BookingIDs)
	if err := tx.
		Model(&models.Booking{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"payment_status": string(types.PAYMENT_PAID),
			"transaction_id": d.cfPaymentID,
		}).
		Error; err != nil {
		return false, err
	}
	if err := tx.
		Model(&models.Booking{}).
		Where("id IN ? AND status = ?", ids, string(types.BOOKING_UNASSIGNED)).
		Updates(map[string]any{"status": string(types.BOOKING_PENDING)}).
		Error; err != nil {
		return false, err
	}
	return true, nil
}

func applyFailureTx(tx *gorm.DB, payment *models.Payment, reason string, raw types.JSONB) (bool, error) {
	res := tx.
		Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", payment.OrderID, []string{
			string(types.ORDER_CREATED), string(types.ORDER_ACTIVE),
		}).
		Updates(map[string]any{
			"failure_reason":   reason,
			"raw_webhook_data": raw,
			"status":           string(types.ORDER_FAILED),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	err := tx.
		Model(&models.Booking{}).
		Where("id IN ?", []uint(payment.BookingIDs)).
		Updates(map[string]any{"payment_status": string(types.PAYMENT_FAILED)}).
		Error
	return err == nil, err
}

func applyCancelTx(tx *gorm.DB, payment *models.Payment, raw types.JSONB) (bool, error) {
	res := tx.
		Model(&models.Payment{}).
		Where("order_id = ? AND status IN ?", payment.OrderID, []string{
			string(types.ORDER_CREATED), string(types.ORDER_ACTIVE),
		}).
		Updates(map[string]any{
			"raw_webhook_data": raw,
			"status":           string(types.ORDER_CANCELLED),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	// The bookings stay payable: back to pending, not failed.
	err := tx.
		Model(&models.Booking{}).
		Where("id IN ?", []uint(payment.BookingIDs)).
		Updates(map[string]any{"payment_status": string(types.PAYMENT_PENDING)}).
		Error
	return err == nil, err
}

func recordWebhookEvent(orderID, eventType, signature string, raw types.JSONB, outcome WebhookOutcome, applyErr error) {
	event := models.WebhookEvent{
		Provider:  "cashfree",
		OrderID:   orderID,
		EventType: eventType,
		Signature: signature,
		Payload:   raw,
		Outcome:   string(outcome),
	}
	if applyErr != nil {
		event.Outcome = fmt.Sprintf("error: %s", applyErr.Error())
	}
	gdb := db.GetDb()
	if err := gdb.Create(&event).Error; err != nil {
		log.Printf("[webhook] Error recording audit event for %s: %s\n", orderID, err.Error())
	}
}

// VerifyPayment is the polling fallback for missed webhooks: asks the
// gateway for the order's attempts and applies the success cascade if one
// went through.
func VerifyPayment(ctx context.Context, userId uint, orderID string) (*models.Payment, error) {
	gdb := db.GetDb()
	var payment models.Payment
	if err := gdb.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "payment", ID: orderID}
		}
		return nil, err
	}
	if payment.UserID != userId {
		return nil, &types.ForbiddenError{Detail: "payment belongs to another account"}
	}

	if payment.Status != string(types.ORDER_PAID) {
		cf := lib.GetCashfreeClient()
		attempts, err := cf.GetOrderPayments(ctx, orderID)
		if err != nil {
			return nil, err
		}
		for _, attempt := range attempts {
			if attempt.PaymentStatus != "SUCCESS" {
				continue
			}
			var paymentTime *time.Time
			if t, err := time.Parse(time.RFC3339, attempt.PaymentTime); err == nil {
				paymentTime = &t
			}
			err = gdb.Transaction(func(tx *gorm.DB) error {
				_, err := applySuccessTx(tx, &payment, successDetails{
					cfPaymentID:   attempt.CFPaymentID.String(),
					bankReference: attempt.BankReference,
					paymentTime:   paymentTime,
				}, nil)
				return err
			})
			if err != nil {
				return nil, err
			}
			break
		}
	}

	if err := gdb.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// ReconcileOrder re-checks a single non-terminal order against the gateway.
// Runs from the scheduled payment check and from the periodic sweep.
func ReconcileOrder(ctx context.Context, orderID string) error {
	gdb := db.GetDb()
	var payment models.Payment
	if err := gdb.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.NotFoundError{Resource: "payment", ID: orderID}
		}
		return err
	}
	switch payment.Status {
	case string(types.ORDER_CREATED), string(types.ORDER_ACTIVE):
	default:
		return nil
	}

	cf := lib.GetCashfreeClient()
	attempts, err := cf.GetOrderPayments(ctx, orderID)
	if err != nil {
		return err
	}
	for _, attempt := range attempts {
		if attempt.PaymentStatus != "SUCCESS" {
			continue
		}
		var paymentTime *time.Time
		if t, err := time.Parse(time.RFC3339, attempt.PaymentTime); err == nil {
			paymentTime = &t
		}
		return gdb.Transaction(func(tx *gorm.DB) error {
			_, err := applySuccessTx(tx, &payment, successDetails{
				cfPaymentID:   attempt.CFPaymentID.String(),
				bankReference: attempt.BankReference,
				paymentTime:   paymentTime,
			}, nil)
			return err
		})
	}

	// Still unpaid past the expiry window: expire the order. The covered
	// bookings keep payment_status pending so the user can retry.
	if time.Since(payment.CreatedAt) >= config.PaymentExpiryWindow() {
		return gdb.
			Model(&models.Payment{}).
			Where("order_id = ? AND status IN ?", orderID, []string{
				string(types.ORDER_CREATED), string(types.ORDER_ACTIVE),
			}).
			Updates(map[string]any{"status": string(types.ORDER_EXPIRED)}).
			Error
	}
	return nil
}

// ExpireStalePayments sweeps all orders stuck in CREATED/ACTIVE past the
// expiry window. Scheduled as a recurring job at boot.
func ExpireStalePayments() {
	gdb := db.GetDb()
	cutoff := time.Now().Add(-config.PaymentExpiryWindow())
	var stale []models.Payment
	if err := gdb.
		Where("status IN ? AND created_at < ?", []string{
			string(types.ORDER_CREATED), string(types.ORDER_ACTIVE),
		}, cutoff).
		Find(&stale).
		Error; err != nil {
		log.Printf("[payments] Error loading stale orders: %s\n", err.Error())
		return
	}
	for _, p := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := ReconcileOrder(ctx, p.OrderID); err != nil {
			log.Printf("[payments] Error reconciling order %s: %s\n", p.OrderID, err.Error())
		}
		cancel()
	}
	if len(stale) > 0 {
		log.Printf("[payments] Swept %d stale orders\n", len(stale))
	}
}

func GetPayment(userId uint, orderID string) (*models.Payment, error) {
	gdb := db.GetDb()
	var payment models.Payment
	if err := gdb.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &types.NotFoundError{Resource: "payment", ID: orderID}
		}
		return nil, err
	}
	if payment.UserID != userId {
		return nil, &types.ForbiddenError{Detail: "payment belongs to another account"}
	}
	return &payment, nil
}

func ListPayments(userId uint) ([]models.Payment, error) {
	gdb := db.GetDb()
	var payments []models.Payment
	err := gdb.
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&payments).
		Error
	return payments, err
}
