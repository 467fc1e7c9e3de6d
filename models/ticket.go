package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultTicketColor is applied when a ticket is created without an
// explicit color.
const DefaultTicketColor = "#2ecc71"

// Ticket is a time-boxed event placed on an agenda's calendar,
// optionally assigned to one of the agenda's teams.
type Ticket struct {
	gorm.Model

	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Color       string    `gorm:"default:'#2ecc71'" json:"color"`

	AgendaID  uint  `gorm:"not null;index" json:"agenda_id"`
	TeamID    *uint `json:"team_id,omitempty"`
	CreatedBy uint  `gorm:"not null;index" json:"created_by"`

	// Relations
	Agenda  Agenda          `json:"-"`
	Team    *Team           `json:"-"`
	Creator User            `gorm:"foreignKey:CreatedBy" json:"-"`
	History []TicketHistory `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
}

// TicketHistory is an append-only audit record of a ticket mutation.
// Entries are never edited or pruned.
type TicketHistory struct {
	gorm.Model

	TicketID uint   `gorm:"not null;index" json:"ticket_id"`
	UserID   uint   `gorm:"not null" json:"user_id"`
	Action   string `gorm:"not null" json:"action"` // created, updated, moved, ...
	Changes  string `json:"changes"`

	// Relations
	Ticket Ticket `json:"-"`
	User   User   `json:"-"`
}

// RecordTicketHistory appends an audit entry for a ticket mutation.
// Callers pass the transaction the mutation runs in so the ticket write
// and its audit entry commit or roll back together.
func RecordTicketHistory(tx *gorm.DB, ticketID, userID uint, action, changes string) error {
	entry := TicketHistory{
		TicketID: ticketID,
		UserID:   userID,
		Action:   action,
		Changes:  changes,
	}
	return tx.Create(&entry).Error
}

// TicketHistoryFor returns the audit trail of one ticket, newest first.
func TicketHistoryFor(db *gorm.DB, ticketID uint) ([]TicketHistory, error) {
	var entries []TicketHistory
	err := db.Where("ticket_id = ?", ticketID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}
