package rbac_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agendly/config"
	"agendly/models"
)

// newTestDB opens a fresh in-memory database with the full schema.
// The DSN is keyed on the test name so parallel tests don't share state.
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

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createAgenda(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Agenda {
	t.Helper()

	agenda := models.Agenda{
		Name:    name,
		OwnerID: owner.ID,
	}
	require.NoError(t, db.Create(&agenda).Error)
	return &agenda
}

func createTeam(t *testing.T, db *gorm.DB, agenda *models.Agenda, name string) *models.Team {
	t.Helper()

	team := models.Team{
		Name:     name,
		AgendaID: agenda.ID,
	}
	require.NoError(t, db.Create(&team).Error)
	return &team
}

func addMember(t *testing.T, db *gorm.DB, agenda *models.Agenda, user *models.User, role string, teamID *uint) *models.AgendaMember {
	t.Helper()

	member := models.AgendaMember{
		UserID:   user.ID,
		AgendaID: agenda.ID,
		Role:     role,
		TeamID:   teamID,
	}
	require.NoError(t, db.Create(&member).Error)
	return &member
}

func addTeamMember(t *testing.T, db *gorm.DB, userID, teamID uint) *models.TeamMember {
	t.Helper()

	membership := models.TeamMember{
		UserID: userID,
		TeamID: teamID,
	}
	require.NoError(t, db.Create(&membership).Error)
	return &membership
}

func seedTicket(t *testing.T, db *gorm.DB, agendaID, creatorID uint, teamID *uint) *models.Ticket {
	t.Helper()

	ticket := models.Ticket{
		Title:     "Sprint review",
		StartTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		AgendaID:  agendaID,
		TeamID:    teamID,
		CreatedBy: creatorID,
	}
	require.NoError(t, db.Create(&ticket).Error)
	return &ticket
}
