package models_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agendly/config"
	"agendly/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))
	return db
}

func seedTicket(t *testing.T, db *gorm.DB) (*models.Ticket, *models.User) {
	t.Helper()

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	agenda := models.Agenda{Name: "Ops", OwnerID: user.ID}
	require.NoError(t, db.Create(&agenda).Error)
	ticket := models.Ticket{
		Title:     "Standup",
		StartTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		AgendaID:  agenda.ID,
		CreatedBy: user.ID,
	}
	require.NoError(t, db.Create(&ticket).Error)
	return &ticket, &user
}

func TestRecordTicketHistory(t *testing.T) {
	db := newTestDB(t)
	ticket, user := seedTicket(t, db)

	require.NoError(t, models.RecordTicketHistory(db, ticket.ID, user.ID, "created", "Ticket scheduled"))

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, user.ID, entries[0].UserID)
	assert.Equal(t, "Ticket scheduled", entries[0].Changes)
}

func TestTicketHistoryOrderedNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ticket, user := seedTicket(t, db)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"created", "moved", "updated"} {
		entry := models.TicketHistory{
			Model:    gorm.Model{CreatedAt: base.Add(time.Duration(i) * time.Minute)},
			TicketID: ticket.ID,
			UserID:   user.ID,
			Action:   action,
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "updated", entries[0].Action)
	assert.Equal(t, "moved", entries[1].Action)
	assert.Equal(t, "created", entries[2].Action)
}

func TestTicketHistoryScopedToTicket(t *testing.T) {
	db := newTestDB(t)
	ticket, user := seedTicket(t, db)

	other := models.Ticket{
		Title:     "Retro",
		StartTime: ticket.StartTime,
		EndTime:   ticket.EndTime,
		AgendaID:  ticket.AgendaID,
		CreatedBy: user.ID,
	}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, models.RecordTicketHistory(db, ticket.ID, user.ID, "created", ""))
	require.NoError(t, models.RecordTicketHistory(db, other.ID, user.ID, "created", ""))

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ticket.ID, entries[0].TicketID)
}

// A rolled-back transaction must leave neither the ticket change nor
// the audit entry behind.
func TestTicketMutationIsAtomicWithAudit(t *testing.T) {
	db := newTestDB(t)
	ticket, user := seedTicket(t, db)

	tx := db.Begin()
	ticket.Title = "Renamed"
	require.NoError(t, tx.Save(ticket).Error)
	require.NoError(t, models.RecordTicketHistory(tx, ticket.ID, user.ID, "updated", "Changed title"))
	tx.Rollback()

	var reloaded models.Ticket
	require.NoError(t, db.First(&reloaded, ticket.ID).Error)
	assert.Equal(t, "Standup", reloaded.Title)

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
