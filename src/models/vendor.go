package models

import "vrober/src/types"

type Vendor struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `json:"name,omitempty"`
	Phone       string  `gorm:"uniqueIndex" json:"phone"`
	Email       string  `json:"email,omitempty"`
	Active      bool    `gorm:"default:true" json:"active"`
	Rating      float32 `json:"rating,omitempty"`
	RatingCount uint    `json:"rating_count,omitempty"`
	FCMToken    *string `json:"-"`

	Categories []*Category `gorm:"many2many:vendor_categories;" json:"categories,omitempty"`
	Bookings   []*Booking  `json:"bookings,omitempty"`

	types.Timestamps
}
