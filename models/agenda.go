package models

import (
	"time"

	"gorm.io/gorm"
)

// Agenda is a shared calendar owned by exactly one user. The owner is
// never recorded as a member; ownership itself grants full permissions.
type Agenda struct {
	gorm.Model

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`

	// Relations. Teams and tickets are destroyed with the agenda.
	Owner   User           `json:"-"`
	Teams   []Team         `gorm:"foreignKey:AgendaID;constraint:OnDelete:CASCADE" json:"teams,omitempty"`
	Tickets []Ticket       `gorm:"foreignKey:AgendaID;constraint:OnDelete:CASCADE" json:"tickets,omitempty"`
	Members []AgendaMember `gorm:"foreignKey:AgendaID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// AgendaMember associates a user with an agenda and records the role
// granted there. Unique per (user, agenda) pair. TeamID is meaningful
// only when the role is team_leader and names the single team that
// leader may manage.
// Membership rows are hard-deleted: a removed member must be able to
// be invited again without tripping the unique index.
type AgendaMember struct {
	ID       uint `gorm:"primarykey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_agenda_membership" json:"user_id"`
	AgendaID uint `gorm:"not null;uniqueIndex:idx_agenda_membership" json:"agenda_id"`

	Role      string    `gorm:"not null;default:'collaborator'" json:"role"`
	TeamID    *uint     `json:"team_id,omitempty"`
	InvitedBy *uint     `json:"invited_by,omitempty"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	User    User   `json:"-"`
	Agenda  Agenda `json:"-"`
	Team    *Team  `json:"-"`
	Inviter *User  `gorm:"foreignKey:InvitedBy" json:"-"`
}
