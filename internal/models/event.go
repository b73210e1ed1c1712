package models

import (
	"time"

	"gorm.io/gorm"
)

// Event belongs to its host via UserID. The host is inserted into Attendees
// at creation time, so AttendeeTotal counts non-host attendees only.
type Event struct {
	gorm.Model

	Title         string `gorm:"not null"`
	Description   string `gorm:"not null"`
	AttendeeTotal int    `gorm:"not null"`
	CoverImage    string
	Venue         string    `gorm:"not null"`
	VenueLat      float64   `gorm:"not null"`
	VenueLng      float64   `gorm:"not null"`
	Date          time.Time `gorm:"not null"`
	UserID        uint      `gorm:"not null;index"`
	CategoryID    uint      `gorm:"not null;index"`

	// Relationships
	User      User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Category  Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT"`
	Attendees []User   `gorm:"many2many:event_attendees"`
}
