package models

import "vrober/src/types"

type Admin struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`

	types.Timestamps
}
