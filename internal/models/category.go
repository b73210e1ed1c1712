package models

import "gorm.io/gorm"

// Category is immutable reference data seeded at startup. Deleting a
// category that events still reference is restricted at the database level.
type Category struct {
	gorm.Model

	Name string `gorm:"uniqueIndex;not null"`

	// Relationships
	Events []Event `gorm:"foreignKey:CategoryID;constraint:OnUpdate:Cascade,OnDelete:RESTRICT"`
}
