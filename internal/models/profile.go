package models

import "gorm.io/gorm"

// Profile holds a user's public-facing profile, created lazily on first read.
type Profile struct {
	gorm.Model
	UserName      string   `gorm:"size:255;uniqueIndex;not null"`
	Bio           string
	Interests     []string `gorm:"serializer:json"`
	MemberSince   string   `gorm:"size:50"`
	TopActivities []string `gorm:"serializer:json"`
	AvatarURL     string   `gorm:"size:512"`
}
