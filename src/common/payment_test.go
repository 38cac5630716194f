package common

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"vrober/src/config"
	"vrober/src/lib"
	"vrober/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func paymentRows(id int64, orderID, status string, bookingIDs string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "order_id", "user_id", "status", "booking_ids", "order_amount"})
	rows.AddRow(id, orderID, int64(2), status, []byte(bookingIDs), int64(99800))
	return rows
}

func successWebhook(orderID string) []byte {
	return []byte(fmt.Sprintf(`{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": {
			"order": {"order_id": "%s"},
			"payment": {
				"cf_payment_id": "885473",
				"payment_status": "SUCCESS",
				"payment_group": "upi",
				"bank_reference": "1873001",
				"payment_time": "2026-08-30T14:05:00+05:30"
			}
		}
	}`, orderID))
}

func expectAuditInsert(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "webhook_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()
}

func TestApplyWebhookInvalidPayload(t *testing.T) {
	_, err := ApplyWebhook([]byte("not json at all"), "sig")
	assert.NotNil(t, err)
	_, ok := err.(*types.ValidationError)
	assert.True(t, ok, "expected ValidationError, got %v", err)
}

func TestApplyWebhookMissingOrderID(t *testing.T) {
	payload := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"payment":{"payment_status":"SUCCESS"}}}`)
	_, err := ApplyWebhook(payload, "sig")
	assert.NotNil(t, err)
	_, ok := err.(*types.ValidationError)
	assert.True(t, ok, "expected ValidationError, got %v", err)
}

func TestApplyWebhookSuccessCascade(t *testing.T) {
	_, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_CREATED), "[1,2]"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(successWebhook("ORDER_1"), "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookDuplicateSuccess(t *testing.T) {
	_, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_PAID), "[1,2]"))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(successWebhook("ORDER_1"), "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookLateFailure(t *testing.T) {
	_, mock := newMockDB(t)

	payload := []byte(`{
		"type": "PAYMENT_FAILED_WEBHOOK",
		"data": {
			"order": {"order_id": "ORDER_1"},
			"payment": {"payment_status": "FAILED", "payment_message": "insufficient funds"}
		}
	}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_PAID), "[1,2]"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(payload, "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookFailureCascade(t *testing.T) {
	_, mock := newMockDB(t)

	payload := []byte(`{
		"type": "PAYMENT_FAILED_WEBHOOK",
		"data": {
			"order": {"order_id": "ORDER_1"},
			"payment": {"payment_status": "FAILED", "payment_message": "card declined"}
		}
	}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_ACTIVE), "[1,2]"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(payload, "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookCancelCascade(t *testing.T) {
	_, mock := newMockDB(t)

	payload := []byte(`{
		"type": "PAYMENT_USER_DROPPED_WEBHOOK",
		"data": {
			"order": {"order_id": "ORDER_1"},
			"payment": {"payment_status": "USER_DROPPED"}
		}
	}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_ACTIVE), "[1,2]"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// A dropped checkout leaves the bookings payable again: pending, not failed.
	mock.ExpectExec(`UPDATE "bookings" SET "payment_status"=\$1`).
		WithArgs(string(types.PAYMENT_PENDING), sqlmock.AnyArg(), int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(payload, "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookIntermediateStatus(t *testing.T) {
	_, mock := newMockDB(t)

	payload := []byte(`{
		"type": "PAYMENT_SUCCESS_WEBHOOK",
		"data": {
			"order": {"order_id": "ORDER_1"},
			"payment": {"payment_status": "PENDING"}
		}
	}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_CREATED), "[1]"))
	mock.ExpectExec(`UPDATE "payments" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectAuditInsert(mock)

	outcome, err := ApplyWebhook(payload, "sig")
	assert.Nil(t, err)
	assert.Equal(t, OutcomeRecorded, outcome)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestApplyWebhookUnknownOrder(t *testing.T) {
	_, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "status"}))
	mock.ExpectRollback()
	expectAuditInsert(mock)

	_, err := ApplyWebhook(successWebhook("ORDER_MISSING"), "sig")
	assert.NotNil(t, err)
	_, ok := err.(*types.NotFoundError)
	assert.True(t, ok, "expected NotFoundError, got %v", err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateOrderUnknownBooking(t *testing.T) {
	_, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "price", "payment_status"}).
		AddRow(int64(1), int64(2), int64(49900), "pending")
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(rows)

	_, err := CreateOrder(context.Background(), 2, &types.CreateOrderRequestBody{BookingIDs: []uint{1, 9}})
	assert.NotNil(t, err)
	_, ok := err.(*types.ValidationError)
	assert.True(t, ok, "expected ValidationError, got %v", err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateOrderAlreadyPaid(t *testing.T) {
	_, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "price", "payment_status"}).
		AddRow(int64(1), int64(2), int64(49900), "paid")
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(rows)

	_, err := CreateOrder(context.Background(), 2, &types.CreateOrderRequestBody{BookingIDs: []uint{1}})
	assert.NotNil(t, err)
	_, ok := err.(*types.ValidationError)
	assert.True(t, ok, "expected ValidationError, got %v", err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateOrderGatewayRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"order_amount is invalid"}`))
	}))
	defer ts.Close()
	lib.NewCashfreeClient(lib.NewCashfreeClientWith(ts.URL, config.CashfreeConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		APIVersion:   "2023-08-01",
	}, ts.Client()))

	_, mock := newMockDB(t)

	bookings := sqlmock.NewRows([]string{"id", "user_id", "price", "payment_status"}).
		AddRow(int64(1), int64(2), int64(49900), "pending")
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(bookings)
	users := sqlmock.NewRows([]string{"id", "phone", "name"}).
		AddRow(int64(2), "9876543210", "Test User")
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(users)

	_, err := CreateOrder(context.Background(), 2, &types.CreateOrderRequestBody{BookingIDs: []uint{1}})
	assert.NotNil(t, err)
	_, ok := err.(*types.GatewayError)
	assert.True(t, ok, "expected GatewayError, got %v", err)
	// The gateway rejected the order, so nothing was persisted.
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentAlreadyPaid(t *testing.T) {
	_, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_PAID), "[1]"))
	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_PAID), "[1]"))

	payment, err := VerifyPayment(context.Background(), 2, "ORDER_1")
	assert.Nil(t, err)
	assert.Equal(t, string(types.ORDER_PAID), payment.Status)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentWrongAccount(t *testing.T) {
	_, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "payments"`).
		WillReturnRows(paymentRows(1, "ORDER_1", string(types.ORDER_PAID), "[1]"))

	_, err := VerifyPayment(context.Background(), 3, "ORDER_1")
	assert.NotNil(t, err)
	_, ok := err.(*types.ForbiddenError)
	assert.True(t, ok, "expected ForbiddenError, got %v", err)
	assert.Nil(t, mock.ExpectationsWereMet())
}
