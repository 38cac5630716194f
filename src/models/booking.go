package models

import (
	"time"

	"vrober/src/types"
)

type Booking struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	UserID      uint        `gorm:"index:idx_bookings_user_created,priority:1" json:"user_id"`
	VendorID    *uint       `json:"vendor_id,omitempty"`
	ServiceID   uint        `json:"service_id"`
	BookingDate time.Time   `gorm:"autoCreateTime" json:"booking_date"`
	ServiceDate time.Time   `json:"service_date"`
	ServiceTime string      `json:"service_time"`
	Address     string      `json:"address"`
	Location    types.JSONB `gorm:"type:jsonb" json:"location,omitempty"`

	Status string `gorm:"index;default:'unassigned'" json:"status"`
	Price  int64  `json:"price"`

	Description         string `json:"description,omitempty"`
	SpecialInstructions string `json:"special_instructions,omitempty"`

	PaymentStatus string  `gorm:"default:'pending'" json:"payment_status"`
	PaymentMethod string  `gorm:"default:'cash'" json:"payment_method"`
	PaymentID     *uint   `json:"payment_id,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`

	Rating      *uint8  `json:"rating,omitempty"`
	Review      string  `json:"review,omitempty"`
	VendorNotes string  `json:"vendor_notes,omitempty"`
	AdminNote   string  `json:"admin_note,omitempty"`

	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`

	User    *User    `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Vendor  *Vendor  `gorm:"foreignKey:vendor_id" json:"vendor,omitempty"`
	Service *Service `gorm:"foreignKey:service_id" json:"service,omitempty"`
	Payment *Payment `gorm:"foreignKey:payment_id" json:"payment,omitempty"`

	types.Timestamps
}
