package controller_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"agendly/config"
	controller "agendly/controllers"
	"agendly/models"
	"agendly/utils"
)

// newTestApp wires the protected API routes onto a fresh in-memory
// database. Authentication is replaced by an X-User-ID header so tests
// can act as any seeded user.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.MigrateDB(db))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		var user models.User
		if err := db.First(&user, utils.ParseUint(c.Get("X-User-ID"))).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		c.Locals("user", &user)
		c.Locals("userID", user.ID)
		return c.Next()
	})

	log := logrus.WithField("component", "test")
	ticketController := controller.NewTicketController(db, log)
	teamController := controller.NewTeamController(db, log)
	memberController := controller.NewMemberController(db, log)

	app.Post("/api/v1/agendas/:agendaId/teams", teamController.CreateTeam)
	app.Post("/api/v1/agendas/:agendaId/members", memberController.InviteMember)
	app.Put("/api/v1/agendas/:agendaId/members/:userId/team-leader", memberController.AssignTeamLeader)
	app.Post("/api/v1/tickets", ticketController.CreateTicket)
	app.Post("/api/v1/tickets/:id/move", ticketController.MoveTicket)
	app.Delete("/api/v1/tickets/:id", ticketController.DeleteTicket)
	app.Get("/api/v1/tickets/:id/history", ticketController.GetTicketHistory)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, userID uint, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// Full team-leader lifecycle: an unassigned leader is rejected with a
// validation error, then succeeds once the owner assigns them a team,
// and the creation is audited.
func TestTeamLeaderTicketCreationFlow(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	leader := seedUser(t, db, "victor")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)

	// Owner invites victor as team_leader (no team yet).
	resp := doJSON(t, app, owner.ID, "POST",
		fmt.Sprintf("/api/v1/agendas/%d/members", agenda.ID),
		fmt.Sprintf(`{"email":%q,"role":"team_leader"}`, leader.Email))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Leader tries to create a ticket without a team: validation
	// failure, not permission denial.
	createBody := fmt.Sprintf(`{"agenda_id":%d,"title":"Kickoff","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z"}`, agenda.ID)
	resp = doJSON(t, app, leader.ID, "POST", "/api/v1/tickets", createBody)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// Owner creates a team and makes victor its leader.
	resp = doJSON(t, app, owner.ID, "POST",
		fmt.Sprintf("/api/v1/agendas/%d/teams", agenda.ID),
		`{"name":"Platform"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var team models.Team
	require.NoError(t, db.Where("agenda_id = ?", agenda.ID).First(&team).Error)

	resp = doJSON(t, app, owner.ID, "PUT",
		fmt.Sprintf("/api/v1/agendas/%d/members/%d/team-leader", agenda.ID, leader.ID),
		fmt.Sprintf(`{"team_id":%d}`, team.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Now the same creation with the team succeeds.
	createBody = fmt.Sprintf(`{"agenda_id":%d,"title":"Kickoff","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z","team_id":%d}`, agenda.ID, team.ID)
	resp = doJSON(t, app, leader.ID, "POST", "/api/v1/tickets", createBody)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ticket models.Ticket
	require.NoError(t, db.Where("agenda_id = ?", agenda.ID).First(&ticket).Error)
	assert.Equal(t, leader.ID, ticket.CreatedBy)
	require.NotNil(t, ticket.TeamID)
	assert.Equal(t, team.ID, *ticket.TeamID)

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, leader.ID, entries[0].UserID)
}

func TestCollaboratorCannotCreateTicket(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	collab := seedUser(t, db, "carla")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)
	require.NoError(t, db.Create(&models.AgendaMember{
		UserID: collab.ID, AgendaID: agenda.ID, Role: "collaborator",
	}).Error)

	body := fmt.Sprintf(`{"agenda_id":%d,"title":"Nope","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z"}`, agenda.ID)
	resp := doJSON(t, app, collab.ID, "POST", "/api/v1/tickets", body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var count int64
	db.Model(&models.Ticket{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateTicketRejectsEndBeforeStart(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)

	body := fmt.Sprintf(`{"agenda_id":%d,"title":"Backwards","start_time":"2024-03-01T10:00:00Z","end_time":"2024-03-01T09:00:00Z"}`, agenda.ID)
	resp := doJSON(t, app, owner.ID, "POST", "/api/v1/tickets", body)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

// Moving a ticket keeps its duration when no new end is supplied and
// appends a "moved" audit entry in the same transaction.
func TestMoveTicket(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)

	body := fmt.Sprintf(`{"agenda_id":%d,"title":"Standup","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T09:30:00Z"}`, agenda.ID)
	resp := doJSON(t, app, owner.ID, "POST", "/api/v1/tickets", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ticket models.Ticket
	require.NoError(t, db.Where("agenda_id = ?", agenda.ID).First(&ticket).Error)

	resp = doJSON(t, app, owner.ID, "POST",
		fmt.Sprintf("/api/v1/tickets/%d/move", ticket.ID),
		`{"new_start":"2024-03-02T14:00:00Z"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&ticket, ticket.ID).Error)
	assert.Equal(t, "2024-03-02T14:00:00Z", ticket.StartTime.UTC().Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, "2024-03-02T14:30:00Z", ticket.EndTime.UTC().Format("2006-01-02T15:04:05Z"))

	entries, err := models.TicketHistoryFor(db, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "moved", entries[0].Action)
}

// A collaborator with no team, who neither created the ticket nor owns
// the agenda, must not see its history.
func TestTicketHistoryVisibility(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	collab := seedUser(t, db, "carla")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)
	require.NoError(t, db.Create(&models.AgendaMember{
		UserID: collab.ID, AgendaID: agenda.ID, Role: "collaborator",
	}).Error)

	body := fmt.Sprintf(`{"agenda_id":%d,"title":"Private","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z"}`, agenda.ID)
	resp := doJSON(t, app, owner.ID, "POST", "/api/v1/tickets", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ticket models.Ticket
	require.NoError(t, db.Where("agenda_id = ?", agenda.ID).First(&ticket).Error)

	historyPath := fmt.Sprintf("/api/v1/tickets/%d/history", ticket.ID)

	resp = doJSON(t, app, collab.ID, "GET", historyPath, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, owner.ID, "GET", historyPath, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data struct {
			History []models.TicketHistory `json:"history"`
		} `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Len(t, payload.Data.History, 1)
	assert.Equal(t, "created", payload.Data.History[0].Action)
}

// Deleting a ticket removes its audit trail with it; nothing else may
// survive the transaction.
func TestDeleteTicketRemovesHistory(t *testing.T) {
	app, db := newTestApp(t)

	owner := seedUser(t, db, "olivia")
	agenda := models.Agenda{Name: "Launch plan", OwnerID: owner.ID}
	require.NoError(t, db.Create(&agenda).Error)

	body := fmt.Sprintf(`{"agenda_id":%d,"title":"Doomed","start_time":"2024-03-01T09:00:00Z","end_time":"2024-03-01T10:00:00Z"}`, agenda.ID)
	resp := doJSON(t, app, owner.ID, "POST", "/api/v1/tickets", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var ticket models.Ticket
	require.NoError(t, db.Where("agenda_id = ?", agenda.ID).First(&ticket).Error)

	resp = doJSON(t, app, owner.ID, "DELETE", fmt.Sprintf("/api/v1/tickets/%d", ticket.ID), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tickets, histories int64
	db.Model(&models.Ticket{}).Count(&tickets)
	db.Model(&models.TicketHistory{}).Count(&histories)
	assert.Zero(t, tickets)
	assert.Zero(t, histories)
}
