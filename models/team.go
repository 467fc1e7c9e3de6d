package models

import (
	"time"

	"gorm.io/gorm"
)

// Team represents a named grouping of members inside one agenda
type Team struct {
	gorm.Model

	Name     string `gorm:"not null" json:"name"`
	Color    string `gorm:"default:'#3498db'" json:"color"`
	AgendaID uint   `gorm:"not null;index" json:"agenda_id"`

	// Relations
	Agenda  Agenda       `json:"-"`
	Members []TeamMember `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Tickets []Ticket     `gorm:"foreignKey:TeamID" json:"tickets,omitempty"`
}

// TeamMember associates a user with a team. Unique per (user, team)
// pair. Team membership does not grant calendar permissions; it only
// widens ticket-history visibility for the team's tickets.
type TeamMember struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_team_membership" json:"user_id"`
	TeamID uint `gorm:"not null;uniqueIndex:idx_team_membership" json:"team_id"`

	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	User User `json:"-"`
	Team Team `json:"-"`
}
