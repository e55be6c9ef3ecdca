package models

import "gorm.io/gorm"

// Membership is the durable record that a user belongs to a lobby.
// The (lobby, user) pair is unique; insertion order doubles as join order.
type Membership struct {
	gorm.Model
	LobbyID  uint   `gorm:"not null;uniqueIndex:idx_lobby_user"`
	UserName string `gorm:"size:255;not null;uniqueIndex:idx_lobby_user"`
}
