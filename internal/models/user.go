package models

import "gorm.io/gorm"

// User represents a registered account.
type User struct {
	gorm.Model
	UserName     string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`
}
