package models

import "vrober/src/types"

type Category struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	Name   string `json:"name"`
	Slug   string `gorm:"uniqueIndex" json:"slug"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `gorm:"default:true" json:"active"`

	Services []*Service `json:"services,omitempty"`

	types.Timestamps
}
