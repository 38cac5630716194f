package models

import (
	"time"

	"vrober/src/types"
)

// WebhookEvent is the audit trail for gateway callbacks. One row per received
// webhook, written regardless of how the payload was classified.
type WebhookEvent struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	Provider  string      `gorm:"default:'cashfree'" json:"provider"`
	OrderID   string      `gorm:"index" json:"order_id"`
	EventType string      `json:"event_type"`
	Signature string      `json:"-"`
	Payload   types.JSONB `gorm:"type:jsonb" json:"payload"`
	Outcome   string      `json:"outcome"`
	CreatedAt time.Time   `gorm:"autoCreateTime:nano" json:"created_at"`
}
