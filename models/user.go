package models

import (
	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Agendas         []Agenda       `gorm:"foreignKey:OwnerID" json:"agendas,omitempty"`
	Memberships     []AgendaMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	TeamMemberships []TeamMember   `gorm:"foreignKey:UserID" json:"team_memberships,omitempty"`
}
