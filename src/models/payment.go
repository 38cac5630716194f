package models

import (
	"time"

	"vrober/src/types"
)

// Payment is one gateway order. It may cover several bookings; their ids are
// kept in BookingIDs so the webhook cascade can address them in one update.
type Payment struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	OrderID       string        `gorm:"uniqueIndex" json:"order_id"`
	OrderAmount   int64         `json:"order_amount"`
	OrderCurrency string        `gorm:"default:'INR'" json:"order_currency"`
	UserID        uint          `gorm:"index:idx_payments_user_created,priority:1" json:"user_id"`
	BookingIDs    types.IDSlice `gorm:"type:jsonb" json:"booking_ids"`

	Status string `gorm:"index;default:'CREATED'" json:"status"`

	PaymentMethod    string     `json:"payment_method,omitempty"`
	PaymentTime      *time.Time `json:"payment_time,omitempty"`
	TransactionID    string     `json:"transaction_id,omitempty"`
	CFOrderID        string     `json:"cf_order_id,omitempty"`
	CFPaymentID      string     `json:"cf_payment_id,omitempty"`
	BankReference    string     `json:"bank_reference,omitempty"`
	PaymentSessionID string     `json:"-"`

	Customer       types.JSONB `gorm:"type:jsonb" json:"customer,omitempty"`
	PaymentGateway string      `gorm:"default:'cashfree'" json:"payment_gateway"`
	RawWebhookData types.JSONB `gorm:"type:jsonb" json:"-"`
	FailureReason  string      `json:"failure_reason,omitempty"`

	RefundStatus string `gorm:"default:'none'" json:"refund_status"`
	RefundAmount int64  `json:"refund_amount,omitempty"`

	Metadata types.JSONB `gorm:"type:jsonb" json:"metadata,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
