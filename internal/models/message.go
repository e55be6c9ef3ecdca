package models

import "gorm.io/gorm"

// ChatMessage is one chat entry in a lobby, append-only and ordered by Ts.
type ChatMessage struct {
	gorm.Model
	LobbyID  uint   `gorm:"not null;index"`
	UserName string `gorm:"size:255;not null"`
	Text     string `gorm:"not null"`
	Ts       int64  `gorm:"not null;index"` // unix milliseconds
}
