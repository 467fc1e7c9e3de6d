package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agendly/models"
	"agendly/rbac"
	"agendly/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
	Auth   *rbac.Authorizer
}

func NewTeamController(db *gorm.DB, logger *logrus.Entry) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
		Auth:   rbac.NewAuthorizer(db),
	}
}

type CreateTeamRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))

	if !tc.Auth.Authorize(user.ID, agendaID, rbac.ActionCreateTeam, nil) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to create teams in this agenda",
		})
	}

	var req CreateTeamRequest
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

	team := models.Team{
		Name:     req.Name,
		AgendaID: agendaID,
	}
	if req.Color != "" {
		team.Color = req.Color
	}

	if err := tc.DB.Create(&team).Error; err != nil {
		tc.Logger.WithError(err).Error("Failed to create team")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

type UpdateTeamRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	teamID := utils.ParseUint(c.Params("id"))

	var team models.Team
	if err := tc.DB.Where("id = ? AND agenda_id = ?", teamID, agendaID).First(&team).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, agendaID, rbac.ActionEditTeam, &team.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to edit this team",
		})
	}

	var req UpdateTeamRequest
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

	if req.Name != "" {
		team.Name = req.Name
	}
	if req.Color != "" {
		team.Color = req.Color
	}

	if err := tc.DB.Save(&team).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update team",
		})
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	teamID := utils.ParseUint(c.Params("id"))

	var team models.Team
	if err := tc.DB.Where("id = ? AND agenda_id = ?", teamID, agendaID).First(&team).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, agendaID, rbac.ActionDeleteTeam, &team.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to delete this team",
		})
	}

	tx := tc.DB.Begin()
	if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamMember{}).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete team",
		})
	}
	// Tickets survive their team; they fall back to unassigned.
	if err := tx.Model(&models.Ticket{}).Where("team_id = ?", team.ID).
		Update("team_id", nil).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete team",
		})
	}
	if err := tx.Delete(&team).Error; err != nil {
		tx.Rollback()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete team",
		})
	}
	tx.Commit()

	return c.JSON(utils.SuccessResponse(fiber.Map{"deleted": team.ID}))
}

type AddTeamMemberRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// AddTeamMember puts an agenda member into a team. Team membership only
// affects ticket-history visibility, not calendar permissions.
func (tc *TeamController) AddTeamMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	teamID := utils.ParseUint(c.Params("id"))

	var team models.Team
	if err := tc.DB.Where("id = ? AND agenda_id = ?", teamID, agendaID).First(&team).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Team not found",
		})
	}

	if !tc.Auth.Authorize(user.ID, agendaID, rbac.ActionEditTeam, &team.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to manage this team",
		})
	}

	var req AddTeamMemberRequest
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

	var existing models.TeamMember
	if err := tc.DB.Where("user_id = ? AND team_id = ?", req.UserID, team.ID).
		First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already in this team",
		})
	}

	membership := models.TeamMember{
		UserID: req.UserID,
		TeamID: team.ID,
	}
	if err := tc.DB.Create(&membership).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add team member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(membership))
}
