package models

import (
	"time"

	"gorm.io/gorm"
)

type AccessToken struct {
	gorm.Model

	Token     string    `gorm:"index;not null"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
