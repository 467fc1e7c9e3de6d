package controller

import (
	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"agendly/models"
	"agendly/rbac"
	"agendly/utils"
)

// MemberController exposes the owner-only membership operations:
// invite, remove, role change and team-leader assignment. The owner
// check itself lives in the rbac package.
type MemberController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewMemberController(db *gorm.DB, logger *logrus.Entry) *MemberController {
	return &MemberController{
		DB:     db,
		Logger: logger,
	}
}

type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin team_leader collaborator"`
}

func (mc *MemberController) InviteMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))

	var req InviteMemberRequest
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
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	member, err := rbac.InviteMember(mc.DB, user.ID, agendaID, req.Email, req.Role)
	if err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Could not invite member", err)
	}

	mc.Logger.WithFields(logrus.Fields{
		"agenda_id":  agendaID,
		"invited_by": user.ID,
		"member_id":  member.UserID,
		"role":       member.Role,
	}).Info("Member invited")

	// Notify the invitee out of band; the invite stands either way.
	var agenda models.Agenda
	if err := mc.DB.First(&agenda, agendaID).Error; err == nil {
		go utils.SendInviteEmail(req.Email, agenda.Name, member.Role)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(member))
}

func (mc *MemberController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	memberID := utils.ParseUint(c.Params("userId"))

	if err := rbac.RemoveMember(mc.DB, user.ID, agendaID, memberID); err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Could not remove member", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"removed": memberID}))
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (mc *MemberController) UpdateMemberRole(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	memberID := utils.ParseUint(c.Params("userId"))

	var req UpdateRoleRequest
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

	if err := rbac.UpdateRole(mc.DB, user.ID, agendaID, memberID, req.Role); err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Could not update role", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"user_id": memberID,
		"role":    req.Role,
	}))
}

type AssignTeamLeaderRequest struct {
	TeamID uint `json:"team_id" validate:"required"`
}

func (mc *MemberController) AssignTeamLeader(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	agendaID := utils.ParseUint(c.Params("agendaId"))
	memberID := utils.ParseUint(c.Params("userId"))

	var req AssignTeamLeaderRequest
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

	if err := rbac.AssignTeamLeader(mc.DB, user.ID, agendaID, memberID, req.TeamID); err != nil {
		return utils.ErrorResponse(c, utils.StatusForError(err), "Could not assign team leader", err)
	}

	mc.Logger.WithFields(logrus.Fields{
		"agenda_id": agendaID,
		"user_id":   memberID,
		"team_id":   req.TeamID,
	}).Info("Team leader assigned")

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"user_id": memberID,
		"role":    string(rbac.RoleTeamLeader),
		"team_id": req.TeamID,
	}))
}
