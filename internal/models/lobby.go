package models

import "gorm.io/gorm"

// Lobby represents a capacity-bounded meetup activity.
// People is a cached count derived from membership records; the ledger
// recomputes it after every join/leave and it is never trusted as input.
type Lobby struct {
	gorm.Model
	OwnerID  uint   `gorm:"not null;index"`
	Name     string `gorm:"size:255;not null"`
	Tag      string `gorm:"size:255"`
	Time     string `gorm:"size:255"`
	Location string `gorm:"size:255"`
	Max      int    `gorm:"not null"`
	People   int    `gorm:"not null;default:0"`

	Owner User `gorm:"foreignKey:OwnerID"`
}
