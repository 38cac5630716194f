package models

import "vrober/src/types"

type Service struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	CategoryID  uint   `json:"category_id"`
	Name        string `json:"name"`
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Description string `json:"description,omitempty"`
	// Price is stored in paise. Booking prices are always copied from here,
	// never taken from the client.
	Price        int64  `json:"price"`
	Duration     uint   `json:"duration,omitempty"`
	Image        string `json:"image,omitempty"`
	Active       bool   `gorm:"default:true" json:"active"`
	BookingCount uint   `gorm:"default:0" json:"booking_count"`

	Category *Category `gorm:"foreignKey:category_id" json:"category,omitempty"`

	types.Timestamps
}
