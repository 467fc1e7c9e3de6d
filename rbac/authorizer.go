package rbac

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"agendly/models"
)

// Authorizer answers permission questions against the membership
// store. Its methods only read; mutations stay with the callers.
type Authorizer struct {
	DB *gorm.DB
}

func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{DB: db}
}

// ResolveRole determines a user's effective role within an agenda:
// owner when the agenda belongs to the user, otherwise the role on the
// agenda membership, otherwise RoleNone. Returns ErrNotFound when the
// agenda itself does not exist, which callers must treat as a missing
// resource rather than a denial.
func (a *Authorizer) ResolveRole(userID, agendaID uint) (Role, error) {
	var agenda models.Agenda
	if err := a.DB.First(&agenda, agendaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoleNone, ErrNotFound
		}
		return RoleNone, err
	}

	if agenda.OwnerID == userID {
		return RoleOwner, nil
	}

	var member models.AgendaMember
	err := a.DB.Where("user_id = ? AND agenda_id = ?", userID, agendaID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RoleNone, nil
		}
		return RoleNone, err
	}

	return Role(member.Role), nil
}

// Authorize decides whether userID may perform action on agendaID,
// optionally scoped to a team. The agenda owner passes unconditionally.
// A team leader is cut off as soon as the supplied team differs from
// their assigned one, whatever the action. Everyone else is checked
// against the role permission table. A missing agenda or membership
// always denies.
func (a *Authorizer) Authorize(userID, agendaID uint, action Action, teamID *uint) bool {
	var agenda models.Agenda
	if err := a.DB.First(&agenda, agendaID).Error; err != nil {
		return false
	}

	if agenda.OwnerID == userID {
		return true
	}

	var member models.AgendaMember
	err := a.DB.Where("user_id = ? AND agenda_id = ?", userID, agendaID).First(&member).Error
	if err != nil {
		return false
	}

	// A team leader's authority never extends beyond their own team.
	if Role(member.Role) == RoleTeamLeader && teamID != nil {
		if member.TeamID == nil || *member.TeamID != *teamID {
			return false
		}
	}

	return Role(member.Role).Can(action)
}

// ValidateTicketAssignment enforces the request-shape rule layered on
// top of ticket creation: a team leader must assign the ticket to a
// team, and that team must belong to the same agenda. Evaluated after
// Authorize has already passed, so a failure here is a validation
// error, not a permission one.
func (a *Authorizer) ValidateTicketAssignment(userID, agendaID uint, teamID *uint) error {
	var member models.AgendaMember
	err := a.DB.Where("user_id = ? AND agenda_id = ?", userID, agendaID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Owners and non-members are not subject to the rule.
			return nil
		}
		return err
	}

	if Role(member.Role) != RoleTeamLeader {
		return nil
	}

	if teamID == nil {
		return fmt.Errorf("%w: team leaders must assign tickets to a team", ErrValidation)
	}

	var team models.Team
	if err := a.DB.Where("id = ? AND agenda_id = ?", *teamID, agendaID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: team does not belong to this agenda", ErrValidation)
		}
		return err
	}

	return nil
}

// CanViewTicketHistory applies the history visibility rule: the
// ticket's creator, the owning agenda's owner, or a member of the
// ticket's team (when it has one) may read the audit trail. This is
// deliberately narrower than, and independent of, the action
// permission table.
func (a *Authorizer) CanViewTicketHistory(userID uint, ticket *models.Ticket) (bool, error) {
	if ticket.CreatedBy == userID {
		return true, nil
	}

	var agenda models.Agenda
	if err := a.DB.First(&agenda, ticket.AgendaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	if agenda.OwnerID == userID {
		return true, nil
	}

	if ticket.TeamID == nil {
		return false, nil
	}

	var membership models.TeamMember
	err := a.DB.Where("user_id = ? AND team_id = ?", userID, *ticket.TeamID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
