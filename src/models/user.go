package models

import "vrober/src/types"

type User struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	Name      string      `json:"name,omitempty"`
	Phone     string      `gorm:"uniqueIndex" json:"phone"`
	Email     string      `json:"email,omitempty"`
	Role      string      `gorm:"default:'user'" json:"role,omitempty"`
	FCMToken  *string     `json:"-"`
	Addresses types.JSONB `gorm:"type:jsonb" json:"addresses,omitempty"`

	Bookings []*Booking `json:"bookings,omitempty"`

	types.Timestamps
}
