package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agendly/models"
	"agendly/rbac"
	"agendly/utils"
)

type TicketController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	Auth   *rbac.Authorizer
}

func NewTicketController(db *gorm.DB, logger *logrus.Entry) *TicketController {
	return &TicketController{
		DB:     db,
		Logger: logger,
		Auth:   rbac.NewAuthorizer(db),
	}
}

type CreateTicketRequest struct {
	AgendaID    uint   `json:"agenda_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	TeamID      *uint  `json:"team_id"`
}

func (tc *TicketController) CreateTicket(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !tc.Auth.Authorize(user.ID, req.AgendaID, rbac.ActionCreateTicket, req.TeamID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to create tickets in this agenda",
		})
	}

	// Request-shape rule for team leaders, checked only after the
	// generic authorization passed.
	if err := tc.Auth.ValidateTicketAssignment(user.ID, req.AgendaID, req.TeamID); err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Invalid ticket assignment", err)
	}

	start, err := utils.ParseISOTime(req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "start_time must be an ISO-8601 timestamp",
		})
	}
	end, err := utils.ParseISOTime(req.EndTime)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "end_time must be an ISO-8601 timestamp",
		})
	}
	if end.Before(start) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "end_time must not be before start_time",
		})
	}

	color := req.Color
	if color == "" {
		color = models.DefaultTicketColor
	}

	ticket := models.Ticket{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Color:       color,
		AgendaID:    req.AgendaID,
		TeamID:      req.TeamID,
		CreatedBy:   user.ID,
	}

	// Ticket row and its audit entry commit together or not at all.
	tx := tc.DB.Begin()
	if err := tx.Create(&ticket).Error; err != nil {
		tx.Rollback()
		tc.Logger.WithError(err).Error("Failed to create ticket")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create ticket",
		})
	}
	if err := models.RecordTicketHistory(tx, ticket.ID, user.ID, "created",
		fmt.Sprintf("Ticket %q scheduled from %s to %s",
			ticket.Title, start.Format("2006-01-02 15:04"), end.Format("2006-01-02 15:04"))); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create ticket",
		})
	}
	tx.Commit()

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(ticket))
}

type MoveTicketRequest struct {
	NewStart string `json:"new_start" validate:"required"`
	NewEnd   string `json:"new_end" validate:"omitempty"`
}

// MoveTicket reschedules a ticket, typically from a drag-and-drop on
// the calendar. Unlike a full edit only the timestamps change.
func (tc *TicketController) MoveTicket(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	ticketID := utils.ParseUint(c.Params("id"))

	var ticket models.Ticket
	if err := tc.DB.First(&ticket, ticketID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, ticket.AgendaID, rbac.ActionMoveTicket, ticket.TeamID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to move this ticket",
		})
	}

	var req MoveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	newStart, err := utils.ParseISOTime(req.NewStart)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "new_start must be an ISO-8601 timestamp",
		})
	}

	// A plain drag keeps the duration; a resize supplies new_end.
	newEnd := newStart.Add(ticket.EndTime.Sub(ticket.StartTime))
	if req.NewEnd != "" {
		newEnd, err = utils.ParseISOTime(req.NewEnd)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "new_end must be an ISO-8601 timestamp",
			})
		}
	}
	if newEnd.Before(newStart) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "new_end must not be before new_start",
		})
	}

	changes := fmt.Sprintf("Moved from %s to %s",
		ticket.StartTime.Format("2006-01-02 15:04"), newStart.Format("2006-01-02 15:04"))

	ticket.StartTime = newStart
	ticket.EndTime = newEnd

	tx := tc.DB.Begin()
	if err := tx.Save(&ticket).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to move ticket",
		})
	}
	if err := models.RecordTicketHistory(tx, ticket.ID, user.ID, "moved", changes); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to move ticket",
		})
	}
	tx.Commit()

	return c.JSON(utils.SuccessResponse(ticket))
}

type UpdateTicketRequest struct {
	Title       string `json:"title" validate:"omitempty,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	StartTime   string `json:"start_time" validate:"omitempty"`
	EndTime     string `json:"end_time" validate:"omitempty"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

func (tc *TicketController) UpdateTicket(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	ticketID := utils.ParseUint(c.Params("id"))

	var ticket models.Ticket
	if err := tc.DB.First(&ticket, ticketID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, ticket.AgendaID, rbac.ActionEditTicket, ticket.TeamID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to edit this ticket",
		})
	}

	var req UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var changed []string
	if req.Title != "" && req.Title != ticket.Title {
		ticket.Title = req.Title
		changed = append(changed, "title")
	}
	if req.Description != "" && req.Description != ticket.Description {
		ticket.Description = req.Description
		changed = append(changed, "description")
	}
	if req.Color != "" && req.Color != ticket.Color {
		ticket.Color = req.Color
		changed = append(changed, "color")
	}
	if req.StartTime != "" {
		start, err := utils.ParseISOTime(req.StartTime)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "start_time must be an ISO-8601 timestamp",
			})
		}
		ticket.StartTime = start
		changed = append(changed, "start_time")
	}
	if req.EndTime != "" {
		end, err := utils.ParseISOTime(req.EndTime)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "end_time must be an ISO-8601 timestamp",
			})
		}
		ticket.EndTime = end
		changed = append(changed, "end_time")
	}
	if ticket.EndTime.Before(ticket.StartTime) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "end_time must not be before start_time",
		})
	}

	if len(changed) == 0 {
		return c.JSON(utils.SuccessResponse(ticket))
	}

	tx := tc.DB.Begin()
	if err := tx.Save(&ticket).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update ticket",
		})
	}
	if err := models.RecordTicketHistory(tx, ticket.ID, user.ID, "updated",
		fmt.Sprintf("Changed %v", changed)); err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update ticket",
		})
	}
	tx.Commit()

	return c.JSON(utils.SuccessResponse(ticket))
}

func (tc *TicketController) DeleteTicket(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	ticketID := utils.ParseUint(c.Params("id"))

	var ticket models.Ticket
	if err := tc.DB.First(&ticket, ticketID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, ticket.AgendaID, rbac.ActionDeleteTicket, ticket.TeamID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to delete this ticket",
		})
	}

	tx := tc.DB.Begin()
	if err := tx.Where("ticket_id = ?", ticket.ID).Delete(&models.TicketHistory{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete ticket",
		})
	}
	if err := tx.Delete(&ticket).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete ticket",
		})
	}
	tx.Commit()

	tc.Logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"user_id":   user.ID,
	}).Info("Ticket deleted")

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": ticket.ID}))
}

// GetTicketHistory returns the audit trail of a ticket, newest entry
// first. Visible to the ticket's creator, the agenda owner, or members
// of the ticket's team.
func (tc *TicketController) GetTicketHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	ticketID := utils.ParseUint(c.Params("id"))

	var ticket models.Ticket
	if err := tc.DB.First(&ticket, ticketID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Ticket not found",
		})
	}

	allowed, err := tc.Auth.CanViewTicketHistory(user.ID, &ticket)
	if err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Failed to check access", err)
	}
	if !allowed {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to view this ticket's history",
		})
	}

	entries, err := models.TicketHistoryFor(tc.DB, ticket.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load ticket history",
		})
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"ticket":  ticket,
		"history": entries,
	}))
}
