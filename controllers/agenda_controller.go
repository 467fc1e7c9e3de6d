package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agendly/models"
	"agendly/rbac"
	"agendly/utils"
)

type AgendaController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	Auth   *rbac.Authorizer
}

func NewAgendaController(db *gorm.DB, logger *logrus.Entry) *AgendaController {
	return &AgendaController{
		DB:     db,
		Logger: logger,
		Auth:   rbac.NewAuthorizer(db),
	}
}

type CreateAgendaRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

func (ac *AgendaController) CreateAgenda(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateAgendaRequest
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

	agenda := models.Agenda{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}

	if err := ac.DB.Create(&agenda).Error; err != nil {
		ac.Logger.WithError(err).Error("Failed to create agenda")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create agenda",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(agenda))
}

// ListAgendas returns every agenda the user owns or has joined, each
// annotated with the user's resolved role for the dashboard.
func (ac *AgendaController) ListAgendas(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var owned []models.Agenda
	if err := ac.DB.Where("owner_id = ?", user.ID).Find(&owned).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load agendas",
		})
	}

	var joined []models.Agenda
	err := ac.DB.
		Joins("JOIN agenda_members ON agenda_members.agenda_id = agendas.id").
		Where("agenda_members.user_id = ?", user.ID).
		Distinct().
		Find(&joined).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load agendas",
		})
	}

	type agendaWithRole struct {
		Agenda models.Agenda `json:"agenda"`
		Role   rbac.Role     `json:"role"`
	}

	out := make([]agendaWithRole, 0, len(owned)+len(joined))
	for _, a := range owned {
		out = append(out, agendaWithRole{Agenda: a, Role: rbac.RoleOwner})
	}
	for _, a := range joined {
		role, err := ac.Auth.ResolveRole(user.ID, a.ID)
		if err != nil {
			continue
		}
		out = append(out, agendaWithRole{Agenda: a, Role: role})
	}

	return c.JSON(utils.SuccessResponse(out))
}

// calendarTicket is the event shape the calendar frontend consumes.
type calendarTicket struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Color  string `json:"color"`
	Team   string `json:"team"`
	TeamID *uint  `json:"team_id"`
}

// GetAgenda returns the agenda view: teams, members and tickets in
// calendar event format, plus the caller's resolved role. Owners and
// members only.
func (ac *AgendaController) GetAgenda(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("id"))

	role, err := ac.Auth.ResolveRole(user.ID, agendaID)
	if err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Agenda not found", nil)
	}
	if role == rbac.RoleNone {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a member of this agenda",
		})
	}

	var agenda models.Agenda
	if err := ac.DB.Preload("Teams").Preload("Members").First(&agenda, agendaID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agenda not found",
		})
	}

	var tickets []models.Ticket
	if err := ac.DB.Preload("Team").Where("agenda_id = ?", agendaID).Find(&tickets).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load tickets",
		})
	}

	formatted := make([]calendarTicket, 0, len(tickets))
	for _, t := range tickets {
		teamName := "Unassigned"
		if t.Team != nil {
			teamName = t.Team.Name
		}
		color := t.Color
		if color == "" {
			color = models.DefaultTicketColor
		}
		formatted = append(formatted, calendarTicket{
			ID:     t.ID,
			Title:  t.Title,
			Start:  t.StartTime.Format("2006-01-02T15:04:05Z07:00"),
			End:    t.EndTime.Format("2006-01-02T15:04:05Z07:00"),
			Color:  color,
			Team:   teamName,
			TeamID: t.TeamID,
		})
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"agenda":  agenda,
		"teams":   agenda.Teams,
		"members": agenda.Members,
		"tickets": formatted,
		"role":    role,
	}))
}

// DeleteAgenda destroys an agenda along with its teams and tickets.
// Owner only.
func (ac *AgendaController) DeleteAgenda(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("id"))

	var agenda models.Agenda
	if err := ac.DB.First(&agenda, agendaID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agenda not found",
		})
	}
	if agenda.OwnerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the owner can delete an agenda",
		})
	}

	tx := ac.DB.Begin()
	if err := tx.Where("agenda_id = ?", agendaID).Delete(&models.Ticket{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agenda",
		})
	}
	if err := tx.Where("team_id IN (?)",
		tx.Model(&models.Team{}).Select("id").Where("agenda_id = ?", agendaID),
	).Delete(&models.TeamMember{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agenda",
		})
	}
	if err := tx.Where("agenda_id = ?", agendaID).Delete(&models.Team{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agenda",
		})
	}
	if err := tx.Where("agenda_id = ?", agendaID).Delete(&models.AgendaMember{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agenda",
		})
	}
	if err := tx.Delete(&agenda).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete agenda",
		})
	}
	tx.Commit()

	ac.Logger.WithFields(logrus.Fields{
		"agenda_id": agendaID,
		"user_id":   user.ID,
	}).Info("Agenda deleted")

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": agendaID}))
}
